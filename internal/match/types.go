package match

import (
	"fmt"
	"time"
)

// Memory is the engine's read-only view of one life-story entry.
type Memory struct {
	ID          int64
	Text        string
	Category    string
	DateText    string
	Year        *int
	PersonNames []string
	CreatedAt   time.Time
}

// Weights are the maximum points each score component can contribute.
// They sum to 100 by default but are independently tunable.
type Weights struct {
	Temporal float64
	Names    float64
	Keywords float64
	Visual   float64
}

// DefaultWeights returns the standard component weights.
func DefaultWeights() Weights {
	return Weights{Temporal: 40, Names: 30, Keywords: 20, Visual: 10}
}

// Options configure one batch run.
type Options struct {
	// ConfidenceThreshold is the minimum total score a candidate needs to be
	// assignable. Range [0, 100].
	ConfidenceThreshold float64
	// MaxPerMemory caps how many photos one memory may receive. Must be > 0.
	MaxPerMemory int
	// MaxYearDistance is the year gap at which the temporal component decays
	// to zero. Must be > 0.
	MaxYearDistance int
	// Parallelism bounds concurrent scoring workers; 0 means GOMAXPROCS.
	Parallelism int
	Weights     Weights
}

// DefaultOptions returns the standard matching options.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 40,
		MaxPerMemory:        3,
		MaxYearDistance:     5,
		Weights:             DefaultWeights(),
	}
}

// Validate fails fast on configuration misuse, before any scoring work.
func (o Options) Validate() error {
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be in [0, 100], got %g", o.ConfidenceThreshold)
	}
	if o.MaxPerMemory <= 0 {
		return fmt.Errorf("max photos per memory must be positive, got %d", o.MaxPerMemory)
	}
	if o.MaxYearDistance <= 0 {
		return fmt.Errorf("max year distance must be positive, got %d", o.MaxYearDistance)
	}
	if o.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", o.Parallelism)
	}
	if o.Weights.Temporal < 0 || o.Weights.Names < 0 || o.Weights.Keywords < 0 || o.Weights.Visual < 0 {
		return fmt.Errorf("score weights must not be negative")
	}
	return nil
}

// Breakdown decomposes one pair's score into its named components so the
// total stays auditable.
type Breakdown struct {
	Temporal float64 `json:"temporal"`
	Names    float64 `json:"names"`
	Keywords float64 `json:"keywords"`
	Visual   float64 `json:"visual"`
	Total    float64 `json:"total"`
}

// CandidateScore is one scored (memory, photo) pairing.
type CandidateScore struct {
	PhotoID   int64     `json:"photo_id"`
	Breakdown Breakdown `json:"breakdown"`
}

// Assignment maps memory id to its assigned photo ids, ordered best-first.
type Assignment map[int64][]int64

// Stats are the aggregate results of one batch run.
type Stats struct {
	MemoriesMatched  int `json:"memories_matched"`
	UniquePhotosUsed int `json:"unique_photos_used"`
	FallbackReuses   int `json:"fallback_reuses"`
}

// BatchResult is the outcome of one MatchAll invocation.
type BatchResult struct {
	RunID       string     `json:"run_id"`
	Assignments Assignment `json:"assignments"`
	Stats       Stats      `json:"stats"`
	Duration    time.Duration
}
