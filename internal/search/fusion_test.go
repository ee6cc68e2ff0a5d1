package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseArithmetic(t *testing.T) {
	// Rank 1 in one ranking and rank 2 in the other:
	// 1/(60+1) + 1/(60+2) = 0.032518...
	fused := fuse(60, ranking{7, 9}, ranking{9, 7})
	require.Len(t, fused, 2)

	want := 1.0/61 + 1.0/62
	assert.InDelta(t, want, fused[0].score, 1e-12)
	assert.InDelta(t, want, fused[1].score, 1e-12)
	assert.InDelta(t, 0.03252, fused[0].score, 5e-6)
}

func TestFuseAbsenceContributesNothing(t *testing.T) {
	// Paper 1 ranks first in both; paper 2 appears only in the first
	// ranking. No penalty term: paper 2's score is exactly its single
	// contribution.
	fused := fuse(60, ranking{1, 2}, ranking{1})
	require.Len(t, fused, 2)

	assert.Equal(t, int64(1), fused[0].paperID)
	assert.InDelta(t, 2.0/61, fused[0].score, 1e-12)
	assert.Equal(t, int64(2), fused[1].paperID)
	assert.InDelta(t, 1.0/62, fused[1].score, 1e-12)
}

func TestFuseBothBeatsOne(t *testing.T) {
	// A paper present in both rankings outranks a paper that leads a
	// single ranking, when ranks are comparable.
	fused := fuse(60, ranking{10, 20}, ranking{20, 30})
	require.Len(t, fused, 3)
	assert.Equal(t, int64(20), fused[0].paperID)
}

func TestFuseTieBreaksByID(t *testing.T) {
	// Symmetric ranks give equal scores; order falls back to id ascending.
	fused := fuse(60, ranking{5, 3}, ranking{3, 5})
	require.Len(t, fused, 2)
	assert.Equal(t, int64(3), fused[0].paperID)
	assert.Equal(t, int64(5), fused[1].paperID)
}

func TestFuseDeterministic(t *testing.T) {
	a := ranking{4, 2, 9, 1}
	b := ranking{9, 4, 7}

	first := fuse(60, a, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, fuse(60, a, b))
	}
}

func TestFuseMonotonicity(t *testing.T) {
	// Moving a paper up in one ranking, all else equal, must not lower
	// its fused score.
	lower := fuse(60, ranking{1, 2, 3}, ranking{9})
	higher := fuse(60, ranking{2, 1, 3}, ranking{9})

	scoreOf := func(fused []fusedScore, id int64) float64 {
		for _, f := range fused {
			if f.paperID == id {
				return f.score
			}
		}
		t.Fatalf("paper %d missing", id)
		return 0
	}

	assert.Greater(t, scoreOf(higher, 2), scoreOf(lower, 2))
}

func TestFuseEmptyRankings(t *testing.T) {
	assert.Empty(t, fuse(60))
	assert.Empty(t, fuse(60, ranking{}, ranking{}))

	// One empty side degenerates to the other ranking's order.
	fused := fuse(60, ranking{3, 1, 2}, ranking{})
	require.Len(t, fused, 3)
	assert.Equal(t, int64(3), fused[0].paperID)
	assert.Equal(t, int64(1), fused[1].paperID)
	assert.Equal(t, int64(2), fused[2].paperID)
}

func TestFuseDefaultConstant(t *testing.T) {
	assert.Equal(t, fuse(60, ranking{1, 2}), fuse(0, ranking{1, 2}))
}
