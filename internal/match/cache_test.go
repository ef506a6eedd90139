package match

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/circleapp/photomatch/internal/feature"
	"github.com/circleapp/photomatch/internal/media"
)

// countingExtractor records how many times each text was extracted.
type countingExtractor struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingExtractor() *countingExtractor {
	return &countingExtractor{calls: make(map[string]int)}
}

func (c *countingExtractor) Extract(text string) feature.Set {
	c.mu.Lock()
	c.calls[text]++
	c.mu.Unlock()
	return feature.NewSet()
}

func TestFeatureCacheComputesOncePerEntity(t *testing.T) {
	extractor := newCountingExtractor()
	cache := NewFeatureCache(extractor)

	mem := Memory{ID: 1, Text: "fishing at the lake"}
	for i := 0; i < 5; i++ {
		cache.MemoryFeatures(mem)
	}

	assert.Equal(t, 1, extractor.calls["fishing at the lake"])
}

func TestFeatureCacheConcurrentPopulation(t *testing.T) {
	extractor := newCountingExtractor()
	cache := NewFeatureCache(extractor)

	mem := Memory{ID: 7, Text: "picnic in the garden"}
	photo := media.Candidate{ID: 9, Caption: "garden party", FileType: media.Image}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.MemoryFeatures(mem)
			cache.PhotoFeatures(photo)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, extractor.calls["picnic in the garden"])
	assert.Equal(t, 1, extractor.calls["garden party"])
}

func TestFeatureCacheMergesAttributedPeople(t *testing.T) {
	cache := NewFeatureCache(feature.NewExtractor(nil, nil))

	mem := Memory{ID: 1, Text: "a quiet afternoon", PersonNames: []string{"Rose"}}
	set := cache.MemoryFeatures(mem)
	assert.Contains(t, set.Names, "rose")

	photo := media.Candidate{ID: 2, Caption: "porch swing", People: []string{"Bill"}, FileType: media.Image}
	pset := cache.PhotoFeatures(photo)
	assert.Contains(t, pset.Names, "bill")
}

func TestFeatureCacheKeyedByEntityNotText(t *testing.T) {
	extractor := newCountingExtractor()
	cache := NewFeatureCache(extractor)

	cache.MemoryFeatures(Memory{ID: 1, Text: "same text"})
	cache.MemoryFeatures(Memory{ID: 2, Text: "same text"})

	// Two entities, two computations: the cache is keyed by identity.
	assert.Equal(t, 2, extractor.calls["same text"])
}
