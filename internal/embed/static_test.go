package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "reciprocal rank fusion", RoleQuery)
	require.NoError(t, err)
	b, err := e.Embed(ctx, "reciprocal rank fusion", RoleQuery)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.Len(t, a, StaticDimensions)
	assert.Equal(t, StaticDimensions, e.Dimensions())
}

func TestStaticEmbedderUnitLength(t *testing.T) {
	e := NewStaticEmbedder()
	vec, err := e.Embed(context.Background(), "attention is all you need", RoleDocument)
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestStaticEmbedderSimilarity(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	query, err := e.Embed(ctx, "transformer attention", RoleQuery)
	require.NoError(t, err)
	related, err := e.Embed(ctx, "the transformer uses attention layers", RoleDocument)
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "sqlite write ahead logging", RoleDocument)
	require.NoError(t, err)

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestStaticEmbedderEmptyText(t *testing.T) {
	e := NewStaticEmbedder()
	vec, err := e.Embed(context.Background(), "   ", RoleDocument)
	require.NoError(t, err)
	require.Len(t, vec, StaticDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedderBatch(t *testing.T) {
	e := NewStaticEmbedder()
	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"}, RoleDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	single, err := e.Embed(context.Background(), "two", RoleDocument)
	require.NoError(t, err)
	assert.Equal(t, single, vectors[1])
}

func TestStaticEmbedderClosed(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())
	assert.False(t, e.Available(context.Background()))

	_, err := e.Embed(context.Background(), "text", RoleDocument)
	assert.Error(t, err)
}
