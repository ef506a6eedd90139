package match

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/photomatch/internal/feature"
	"github.com/circleapp/photomatch/internal/media"
)

func newTestEngine() *Engine {
	return NewEngine(feature.NewExtractor(nil, nil), nil)
}

func TestMatchAllEmptyInputs(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.MatchAll(nil, nil, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Assignments)
	assert.Equal(t, Stats{}, result.Stats)
	assert.NotEmpty(t, result.RunID)
}

func TestMatchAllNoPhotos(t *testing.T) {
	engine := newTestEngine()
	memories := []Memory{{ID: 1, Text: "Summer at the lake"}}

	result, err := engine.MatchAll(memories, nil, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Assignments[1])
	assert.Equal(t, Stats{}, result.Stats)
}

func TestMatchAllValidatesOptions(t *testing.T) {
	engine := newTestEngine()

	cases := []Options{
		{ConfidenceThreshold: -1, MaxPerMemory: 3, MaxYearDistance: 5, Weights: DefaultWeights()},
		{ConfidenceThreshold: 101, MaxPerMemory: 3, MaxYearDistance: 5, Weights: DefaultWeights()},
		{ConfidenceThreshold: 40, MaxPerMemory: 0, MaxYearDistance: 5, Weights: DefaultWeights()},
		{ConfidenceThreshold: 40, MaxPerMemory: 3, MaxYearDistance: 0, Weights: DefaultWeights()},
		{ConfidenceThreshold: 40, MaxPerMemory: 3, MaxYearDistance: 5, Parallelism: -2, Weights: DefaultWeights()},
	}

	for i, opts := range cases {
		_, err := engine.MatchAll(nil, nil, opts)
		assert.Error(t, err, "case %d", i)

		_, err = engine.MatchOne(Memory{ID: 1, Text: "x"}, nil, opts)
		assert.Error(t, err, "case %d", i)
	}
}

func TestMatchAllGrandmaRoseScenario(t *testing.T) {
	engine := newTestEngine()

	memories := []Memory{{
		ID:          1,
		Text:        "Summer at the lake with Grandma Rose",
		Year:        intPtr(1978),
		PersonNames: []string{"Rose"},
	}}
	photos := []media.Candidate{
		{ID: 10, Filename: "rose_lake.jpg", Year: intPtr(1978), Caption: "Rose at the lake", People: []string{"Rose"}, FileType: media.Image},
		{ID: 11, Filename: "skyline.jpg", Year: intPtr(2001), Caption: "city skyline", FileType: media.Image},
	}

	result, err := engine.MatchAll(memories, photos, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, []int64{10}, result.Assignments[1])
	assert.Equal(t, 1, result.Stats.MemoriesMatched)
	assert.Equal(t, 1, result.Stats.UniquePhotosUsed)

	scored, err := engine.MatchOne(memories[0], photos, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, scored)
	assert.Equal(t, int64(10), scored[0].PhotoID)
	assert.GreaterOrEqual(t, scored[0].Breakdown.Total, 60.0)
	for _, cand := range scored {
		assert.NotEqual(t, int64(11), cand.PhotoID, "photo 11 has no signal and must not score")
	}
}

func TestMatchAllContestedPhotoFallback(t *testing.T) {
	engine := newTestEngine()

	memories := []Memory{
		{ID: 1, Text: "Fishing with Uncle Bill", Year: intPtr(1960), PersonNames: []string{"Bill"}},
		{ID: 2, Text: "Uncle Bill and the fishing boat", Year: intPtr(1960), PersonNames: []string{"Bill"}},
	}
	photos := []media.Candidate{
		{ID: 20, Filename: "bill.jpg", Year: intPtr(1960), Caption: "Bill fishing", People: []string{"Bill"}, FileType: media.Image},
	}

	opts := DefaultOptions()
	opts.MaxPerMemory = 1

	result, err := engine.MatchAll(memories, photos, opts)
	require.NoError(t, err)

	assert.Equal(t, []int64{20}, result.Assignments[1])
	assert.Equal(t, []int64{20}, result.Assignments[2])
	assert.Equal(t, 2, result.Stats.MemoriesMatched)
	assert.Equal(t, 1, result.Stats.UniquePhotosUsed)
	assert.Equal(t, 1, result.Stats.FallbackReuses)
}

func TestMatchAllIsDeterministic(t *testing.T) {
	engine := newTestEngine()

	memories := []Memory{
		{ID: 3, Text: "Christmas morning with Mary opening presents", Year: intPtr(1982), PersonNames: []string{"Mary"}},
		{ID: 1, Text: "Summer at the lake with Grandma Rose", Year: intPtr(1978), PersonNames: []string{"Rose"}},
		{ID: 2, Text: "Fishing trip on the old boat", Year: intPtr(1979)},
	}
	photos := []media.Candidate{
		{ID: 10, Filename: "a.jpg", Year: intPtr(1978), Caption: "Rose at the lake", People: []string{"Rose"}, FileType: media.Image},
		{ID: 11, Filename: "b.jpg", Year: intPtr(1979), Caption: "fishing boat on the water", FileType: media.Image},
		{ID: 12, Filename: "c.jpg", Year: intPtr(1982), Caption: "Mary opening presents", People: []string{"Mary"}, FileType: media.Image},
		{ID: 13, Filename: "d.jpg", Year: intPtr(1980), Caption: "lake in summer", FileType: media.Image},
	}

	first, err := engine.MatchAll(memories, photos, DefaultOptions())
	require.NoError(t, err)
	second, err := engine.MatchAll(memories, photos, DefaultOptions())
	require.NoError(t, err)

	// Byte-identical assignments and stats across repeated invocations.
	firstJSON, err := json.Marshal(struct {
		Assignments Assignment
		Stats       Stats
	}{first.Assignments, first.Stats})
	require.NoError(t, err)
	secondJSON, err := json.Marshal(struct {
		Assignments Assignment
		Stats       Stats
	}{second.Assignments, second.Stats})
	require.NoError(t, err)

	assert.Equal(t, firstJSON, secondJSON)
}

func TestMatchAllThresholdMonotonicity(t *testing.T) {
	engine := newTestEngine()

	memories := []Memory{
		{ID: 1, Text: "Summer at the lake with Grandma Rose", Year: intPtr(1978), PersonNames: []string{"Rose"}},
		{ID: 2, Text: "Fishing trip on the old boat", Year: intPtr(1979)},
		{ID: 3, Text: "An undated afternoon"},
	}
	photos := []media.Candidate{
		{ID: 10, Filename: "a.jpg", Year: intPtr(1978), Caption: "Rose at the lake", People: []string{"Rose"}, FileType: media.Image},
		{ID: 11, Filename: "b.jpg", Year: intPtr(1981), Caption: "boat", FileType: media.Image},
	}

	prev := len(memories) + 1
	for _, threshold := range []float64{0, 10, 25, 40, 60, 80, 100} {
		opts := DefaultOptions()
		opts.ConfidenceThreshold = threshold
		result, err := engine.MatchAll(memories, photos, opts)
		require.NoError(t, err)
		assert.LessOrEqual(t, result.Stats.MemoriesMatched, prev, "threshold %g", threshold)
		prev = result.Stats.MemoriesMatched
	}
}

func TestMatchAllExcludesVideos(t *testing.T) {
	engine := newTestEngine()

	memories := []Memory{{ID: 1, Text: "Wedding day with Mary", Year: intPtr(1985), PersonNames: []string{"Mary"}}}
	photos := []media.Candidate{
		{ID: 30, Filename: "wedding.mp4", Year: intPtr(1985), Caption: "Mary wedding", People: []string{"Mary"}, FileType: media.Video},
	}

	result, err := engine.MatchAll(memories, photos, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Assignments[1])
	assert.Zero(t, result.Stats.MemoriesMatched)
}

func TestMatchAllDegradesUnextractableText(t *testing.T) {
	engine := newTestEngine()

	// Signal-free text yields empty features, an empty assignment, and no
	// batch failure.
	memories := []Memory{
		{ID: 1, Text: "£$%^&* 0000"},
		{ID: 2, Text: "Summer at the lake with Grandma Rose", Year: intPtr(1978), PersonNames: []string{"Rose"}},
	}
	photos := []media.Candidate{
		{ID: 10, Filename: "a.jpg", Year: intPtr(1978), Caption: "Rose at the lake", People: []string{"Rose"}, FileType: media.Image},
	}

	result, err := engine.MatchAll(memories, photos, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Assignments[1])
	assert.Equal(t, []int64{10}, result.Assignments[2])
}

func TestMatchOneOrderedBestFirst(t *testing.T) {
	engine := newTestEngine()

	mem := Memory{ID: 1, Text: "Summer at the lake", Year: intPtr(1978)}
	photos := []media.Candidate{
		{ID: 10, Filename: "a.jpg", Year: intPtr(1978), Caption: "the lake in summer", FileType: media.Image},
		{ID: 11, Filename: "b.jpg", Year: intPtr(1980), Caption: "lake", FileType: media.Image},
		{ID: 12, Filename: "c.jpg", Year: intPtr(1979), Caption: "summer at the lake", FileType: media.Image},
	}

	scored, err := engine.MatchOne(mem, photos, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, scored)

	for i := 1; i < len(scored); i++ {
		if scored[i-1].Breakdown.Total == scored[i].Breakdown.Total {
			assert.Less(t, scored[i-1].PhotoID, scored[i].PhotoID)
		} else {
			assert.Greater(t, scored[i-1].Breakdown.Total, scored[i].Breakdown.Total)
		}
	}
}

func TestMatchAllParallelismMatchesSequential(t *testing.T) {
	engine := newTestEngine()

	var memories []Memory
	var photos []media.Candidate
	for i := 1; i <= 20; i++ {
		year := 1950 + i
		memories = append(memories, Memory{ID: int64(i), Text: "fishing at the lake", Year: &year})
		photos = append(photos, media.Candidate{ID: int64(100 + i), Filename: "p.jpg", Year: &year, Caption: "lake fishing", FileType: media.Image})
	}

	sequential := DefaultOptions()
	sequential.Parallelism = 1
	parallel := DefaultOptions()
	parallel.Parallelism = 8

	a, err := engine.MatchAll(memories, photos, sequential)
	require.NoError(t, err)
	b, err := engine.MatchAll(memories, photos, parallel)
	require.NoError(t, err)

	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Stats, b.Stats)
}
