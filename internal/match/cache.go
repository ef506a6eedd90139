package match

import (
	"strings"
	"sync"

	"github.com/circleapp/photomatch/internal/feature"
	"github.com/circleapp/photomatch/internal/media"
)

// TextExtractor is the slice of the feature extractor the cache needs.
type TextExtractor interface {
	Extract(text string) feature.Set
}

// FeatureCache memoizes extracted feature sets for one batch invocation.
// It is owned by the orchestrator: created at batch start and discarded at
// batch end, never shared across runs. Population is synchronized per key
// so concurrent scoring workers compute each entity's features exactly
// once; distinct keys never contend beyond the map lookup.
type FeatureCache struct {
	extractor TextExtractor

	mu       sync.Mutex
	memories map[int64]*cacheEntry
	photos   map[int64]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	set  feature.Set
}

// NewFeatureCache creates an empty cache backed by extractor.
func NewFeatureCache(extractor TextExtractor) *FeatureCache {
	return &FeatureCache{
		extractor: extractor,
		memories:  make(map[int64]*cacheEntry),
		photos:    make(map[int64]*cacheEntry),
	}
}

// MemoryFeatures returns the feature set for a memory, computing it on
// first access. The memory's attributed person names are folded into the
// extracted name set.
func (c *FeatureCache) MemoryFeatures(mem Memory) feature.Set {
	entry := c.entryFor(c.memories, mem.ID)
	entry.once.Do(func() {
		set := c.extractor.Extract(mem.Text)
		for _, name := range mem.PersonNames {
			set.AddName(name)
		}
		entry.set = set
	})
	return entry.set
}

// PhotoFeatures returns the feature set for a photo candidate, derived from
// its caption and tagged people. A photo with no text metadata yields empty
// sets and can still match purely on year.
func (c *FeatureCache) PhotoFeatures(photo media.Candidate) feature.Set {
	entry := c.entryFor(c.photos, photo.ID)
	entry.once.Do(func() {
		text := photo.Caption
		if len(photo.People) > 0 {
			text = text + " " + strings.Join(photo.People, " ")
		}
		set := c.extractor.Extract(text)
		for _, name := range photo.People {
			set.AddName(name)
		}
		entry.set = set
	})
	return entry.set
}

func (c *FeatureCache) entryFor(m map[int64]*cacheEntry, id int64) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := m[id]
	if !ok {
		entry = &cacheEntry{}
		m[id] = entry
	}
	return entry
}
