package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCodecRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{},
		{0},
		{1.5, -2.25, 3.125},
		{float32(math.Pi), float32(math.SmallestNonzeroFloat32), float32(math.MaxFloat32)},
	}
	for _, vec := range vectors {
		decoded, err := DecodeVector(EncodeVector(vec))
		require.NoError(t, err)
		require.Len(t, decoded, len(vec))
		for i := range vec {
			assert.Equal(t, math.Float32bits(vec[i]), math.Float32bits(decoded[i]))
		}
	}
}

func TestDecodeVectorBadLength(t *testing.T) {
	_, err := DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestSearchVectorOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "ada")

	papers := make([]*Paper, 3)
	for i, title := range []string{"A", "B", "C"} {
		papers[i] = &Paper{UserID: u.ID, Title: title, Summary: "s"}
		require.NoError(t, s.CreatePaper(ctx, papers[i]))
	}

	// Cosine against query (1, 0): A aligned, B orthogonal, C diagonal.
	require.NoError(t, s.SaveEmbedding(ctx, papers[0].ID, []float32{1, 0}, "test"))
	require.NoError(t, s.SaveEmbedding(ctx, papers[1].ID, []float32{0, 1}, "test"))
	require.NoError(t, s.SaveEmbedding(ctx, papers[2].ID, []float32{1, 1}, "test"))

	results, err := s.SearchVector(ctx, []float32{1, 0}, Anonymous(), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, papers[0].ID, results[0].PaperID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, papers[2].ID, results[1].PaperID)
	assert.InDelta(t, 1/math.Sqrt(2), results[1].Score, 1e-9)
	assert.Equal(t, papers[1].ID, results[2].PaperID)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestSearchVectorLimitAndTies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "ada")

	var ids []int64
	for _, title := range []string{"A", "B", "C"} {
		p := &Paper{UserID: u.ID, Title: title, Summary: "s"}
		require.NoError(t, s.CreatePaper(ctx, p))
		require.NoError(t, s.SaveEmbedding(ctx, p.ID, []float32{2, 0}, "test"))
		ids = append(ids, p.ID)
	}

	results, err := s.SearchVector(ctx, []float32{1, 0}, Anonymous(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Equal scores break ties by paper id ascending.
	assert.Equal(t, ids[0], results[0].PaperID)
	assert.Equal(t, ids[1], results[1].PaperID)
}

func TestSearchVectorSkipsMismatchedDimensions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "ada")

	good := &Paper{UserID: u.ID, Title: "Good", Summary: "s"}
	stale := &Paper{UserID: u.ID, Title: "Stale", Summary: "s"}
	require.NoError(t, s.CreatePaper(ctx, good))
	require.NoError(t, s.CreatePaper(ctx, stale))

	require.NoError(t, s.SaveEmbedding(ctx, good.ID, []float32{1, 0, 0}, "new-model"))
	require.NoError(t, s.SaveEmbedding(ctx, stale.ID, []float32{1, 0}, "old-model"))

	results, err := s.SearchVector(ctx, []float32{1, 0, 0}, Anonymous(), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, good.ID, results[0].PaperID)
}

func TestSearchVectorVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ada := newTestUser(t, s, "ada")
	grace := newTestUser(t, s, "grace")

	pub := &Paper{UserID: ada.ID, Title: "Public", Summary: "s"}
	priv := &Paper{UserID: ada.ID, Title: "Private", Summary: "s", IsPrivate: true}
	require.NoError(t, s.CreatePaper(ctx, pub))
	require.NoError(t, s.CreatePaper(ctx, priv))
	require.NoError(t, s.SaveEmbedding(ctx, pub.ID, []float32{1, 0}, "test"))
	require.NoError(t, s.SaveEmbedding(ctx, priv.ID, []float32{1, 0}, "test"))

	anon, err := s.SearchVector(ctx, []float32{1, 0}, Anonymous(), 10)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, pub.ID, anon[0].PaperID)

	owner, err := s.SearchVector(ctx, []float32{1, 0}, ForUser(ada.ID), 10)
	require.NoError(t, err)
	assert.Len(t, owner, 2)

	other, err := s.SearchVector(ctx, []float32{1, 0}, ForUser(grace.ID), 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSearchVectorZeroNormQuery(t *testing.T) {
	s := newTestStore(t)
	results, err := s.SearchVector(context.Background(), []float32{0, 0}, Anonymous(), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
