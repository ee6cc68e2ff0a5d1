package search

import "sort"

// fusedScore is a paper id with its accumulated fusion score.
type fusedScore struct {
	paperID int64
	score   float64
}

// fuse combines rankings with reciprocal rank fusion: each ranking
// contributes 1/(k+rank) per paper, rank counted from 1, and the
// contributions sum. A paper absent from a ranking receives nothing
// from it; there is no penalty term and no weighting, so scores from
// responses with different ranking depths remain comparable.
//
// The result is ordered by score descending, ties broken by paper id
// ascending. Given identical rankings the output is identical.
func fuse(k int, rankings ...ranking) []fusedScore {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[int64]float64)
	for _, r := range rankings {
		for i, paperID := range r {
			scores[paperID] += 1.0 / float64(k+i+1)
		}
	}

	fused := make([]fusedScore, 0, len(scores))
	for paperID, score := range scores {
		fused = append(fused, fusedScore{paperID: paperID, score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].paperID < fused[j].paperID
	})
	return fused
}
