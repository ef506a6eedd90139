package match

import (
	"strings"

	"github.com/circleapp/photomatch/internal/feature"
	"github.com/circleapp/photomatch/internal/media"
)

// Score computes the confidence breakdown for one (memory, photo) pair.
// It is a pure function of its inputs: identical inputs always produce the
// identical breakdown.
func Score(mem Memory, memFeatures feature.Set, photo media.Candidate, photoFeatures feature.Set, opts Options) Breakdown {
	b := Breakdown{
		Temporal: temporalScore(mem.Year, photo.Year, opts),
		Names:    nameScore(memFeatures, photoFeatures, opts),
		Keywords: keywordScore(memFeatures, photoFeatures, opts),
		Visual:   visualScore(memFeatures, photoFeatures, opts),
	}

	b.Total = b.Temporal + b.Names + b.Keywords + b.Visual
	if b.Total > 100 {
		b.Total = 100
	}
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}

// temporalScore decays linearly from full weight at distance zero to zero
// at MaxYearDistance. A missing year on either side contributes nothing;
// absence of date information is never treated as a match or a penalty.
func temporalScore(memYear, photoYear *int, opts Options) float64 {
	if memYear == nil || photoYear == nil {
		return 0
	}

	dist := *memYear - *photoYear
	if dist < 0 {
		dist = -dist
	}
	if dist >= opts.MaxYearDistance {
		return 0
	}

	return opts.Weights.Temporal * (1 - float64(dist)/float64(opts.MaxYearDistance))
}

// nameScore is precision from the memory's perspective: the fraction of the
// memory's names found among the photo's names. A photo with extra untagged
// people is not penalized. A memory name counts as found if the photo set
// contains it whole or contains any of its component tokens, so "Grandma
// Rose" matches a photo tagged just "Rose".
func nameScore(mem, photo feature.Set, opts Options) float64 {
	if len(mem.Names) == 0 || len(photo.Names) == 0 {
		return 0
	}

	found := 0
	for key := range mem.Names {
		if nameFoundIn(key, photo.Names) {
			found++
		}
	}

	return opts.Weights.Names * float64(found) / float64(len(mem.Names))
}

func nameFoundIn(key string, names map[string]string) bool {
	if _, ok := names[key]; ok {
		return true
	}
	for _, part := range strings.Fields(key) {
		if _, ok := names[part]; ok {
			return true
		}
	}
	return false
}

// keywordScore rewards shared vocabulary with Jaccard overlap.
func keywordScore(mem, photo feature.Set, opts Options) float64 {
	if len(mem.Keywords) == 0 || len(photo.Keywords) == 0 {
		return 0
	}

	shared := 0
	for word := range mem.Keywords {
		if _, ok := photo.Keywords[word]; ok {
			shared++
		}
	}

	union := len(mem.Keywords) + len(photo.Keywords) - shared
	return opts.Weights.Keywords * float64(shared) / float64(union)
}

// visualScore is the fraction of the memory's visual-descriptor phrases
// that the photo's text also matched.
func visualScore(mem, photo feature.Set, opts Options) float64 {
	if len(mem.Visual) == 0 || len(photo.Visual) == 0 {
		return 0
	}

	shared := 0
	for phrase := range mem.Visual {
		if _, ok := photo.Visual[phrase]; ok {
			shared++
		}
	}

	return opts.Weights.Visual * float64(shared) / float64(len(mem.Visual))
}
