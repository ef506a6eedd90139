package match

import "sort"

// Assign resolves scored candidates into final photo assignments under the
// global uniqueness policy. Memories are processed in ascending id order and
// candidates ranked by score descending with photo id as tiebreaker, so
// results are reproducible across runs. The greedy pass is inherently
// sequential: uniqueness decisions depend on prior assignments.
func Assign(memories []Memory, candidates map[int64][]CandidateScore, opts Options) (Assignment, Stats) {
	ordered := make([]Memory, len(memories))
	copy(ordered, memories)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	assignments := make(Assignment, len(ordered))
	used := make(map[int64]bool)
	stats := Stats{}

	for _, mem := range ordered {
		qualifying := rankQualifying(candidates[mem.ID], opts)

		var picked []int64
		for _, cand := range qualifying {
			if len(picked) >= opts.MaxPerMemory {
				break
			}
			if used[cand.PhotoID] {
				continue
			}
			used[cand.PhotoID] = true
			picked = append(picked, cand.PhotoID)
		}

		// Fallback reuse: a memory whose qualifying candidates are all taken
		// still receives its best one rather than no image at all. Counted so
		// callers can report unique images separately from assignments.
		if len(picked) == 0 && len(qualifying) > 0 {
			picked = append(picked, qualifying[0].PhotoID)
			stats.FallbackReuses++
		}

		assignments[mem.ID] = picked
		if len(picked) > 0 {
			stats.MemoriesMatched++
		}
	}

	stats.UniquePhotosUsed = countUnique(assignments)
	return assignments, stats
}

// rankQualifying filters candidates below the confidence floor and orders
// the survivors best-first with a deterministic tiebreak.
func rankQualifying(scored []CandidateScore, opts Options) []CandidateScore {
	qualifying := make([]CandidateScore, 0, len(scored))
	for _, cand := range scored {
		if cand.Breakdown.Total >= opts.ConfidenceThreshold {
			qualifying = append(qualifying, cand)
		}
	}

	sort.Slice(qualifying, func(i, j int) bool {
		if qualifying[i].Breakdown.Total == qualifying[j].Breakdown.Total {
			return qualifying[i].PhotoID < qualifying[j].PhotoID
		}
		return qualifying[i].Breakdown.Total > qualifying[j].Breakdown.Total
	})

	return qualifying
}

func countUnique(assignments Assignment) int {
	distinct := make(map[int64]bool)
	for _, photos := range assignments {
		for _, id := range photos {
			distinct[id] = true
		}
	}
	return len(distinct)
}
