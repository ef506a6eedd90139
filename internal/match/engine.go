package match

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/circleapp/photomatch/internal/media"
)

// Engine drives matching over full collections. It holds no per-run state;
// each batch call owns a fresh feature cache and score matrix, so concurrent
// batch calls cannot contaminate each other.
type Engine struct {
	extractor TextExtractor
	logger    *zap.Logger
}

// NewEngine creates a matching engine.
func NewEngine(extractor TextExtractor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{extractor: extractor, logger: logger}
}

// MatchAll scores every (memory, photo) pair and resolves assignments.
// The supplied slices are the complete snapshots for this run; the engine
// performs no follow-up per-item reads.
func (e *Engine) MatchAll(memories []Memory, photos []media.Candidate, opts Options) (*BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()

	result := &BatchResult{
		RunID:       runID,
		Assignments: make(Assignment),
	}

	images := imageCandidates(photos)
	if len(memories) == 0 || len(images) == 0 {
		for _, mem := range memories {
			result.Assignments[mem.ID] = nil
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	cache := NewFeatureCache(e.extractor)
	candidates := e.scoreAll(memories, images, cache, opts)

	assignments, stats := Assign(memories, candidates, opts)
	result.Assignments = assignments
	result.Stats = stats
	result.Duration = time.Since(start)

	e.logger.Info("batch match complete",
		zap.String("run_id", runID),
		zap.Int("memories", len(memories)),
		zap.Int("photos", len(images)),
		zap.Int("memories_matched", stats.MemoriesMatched),
		zap.Int("unique_photos_used", stats.UniquePhotosUsed),
		zap.Int("fallback_reuses", stats.FallbackReuses),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// MatchOne scores a single memory against the photo pool and returns every
// candidate with a positive score, best-first. The confidence threshold is
// not applied: preview callers want to see near-misses too.
func (e *Engine) MatchOne(mem Memory, photos []media.Candidate, opts Options) ([]CandidateScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cache := NewFeatureCache(e.extractor)
	memFeatures := cache.MemoryFeatures(mem)

	var scored []CandidateScore
	for _, photo := range imageCandidates(photos) {
		b := Score(mem, memFeatures, photo, cache.PhotoFeatures(photo), opts)
		if b.Total > 0 {
			scored = append(scored, CandidateScore{PhotoID: photo.ID, Breakdown: b})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Breakdown.Total == scored[j].Breakdown.Total {
			return scored[i].PhotoID < scored[j].PhotoID
		}
		return scored[i].Breakdown.Total > scored[j].Breakdown.Total
	})

	return scored, nil
}

// scoreAll computes the full candidate matrix. Scoring is a pure function
// over the read-only cache, so memories are fanned out across workers; each
// worker writes only its own rows.
func (e *Engine) scoreAll(memories []Memory, images []media.Candidate, cache *FeatureCache, opts Options) map[int64][]CandidateScore {
	workers := opts.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(memories) {
		workers = len(memories)
	}

	rows := make([][]CandidateScore, len(memories))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rows[i] = e.scoreMemory(memories[i], images, cache, opts)
			}
		}()
	}

	for i := range memories {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	candidates := make(map[int64][]CandidateScore, len(memories))
	for i, mem := range memories {
		candidates[mem.ID] = rows[i]
	}
	return candidates
}

func (e *Engine) scoreMemory(mem Memory, images []media.Candidate, cache *FeatureCache, opts Options) []CandidateScore {
	memFeatures := cache.MemoryFeatures(mem)

	scored := make([]CandidateScore, 0, len(images))
	for _, photo := range images {
		b := Score(mem, memFeatures, photo, cache.PhotoFeatures(photo), opts)
		if b.Total > 0 {
			scored = append(scored, CandidateScore{PhotoID: photo.ID, Breakdown: b})
		}
	}
	return scored
}

// imageCandidates drops videos from the pool; they carry metadata but never
// participate in visual matching.
func imageCandidates(photos []media.Candidate) []media.Candidate {
	images := make([]media.Candidate, 0, len(photos))
	for _, p := range photos {
		if p.IsImage() {
			images = append(images, p)
		}
	}
	return images
}
