package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps the static embedder and counts backend calls.
type countingEmbedder struct {
	*StaticEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, role Role) ([]float32, error) {
	c.calls.Add(1)
	return c.StaticEmbedder.Embed(ctx, text, role)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.StaticEmbedder.EmbedBatch(ctx, texts, role)
}

func TestCachedEmbedderHit(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "rank fusion", RoleQuery)
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "rank fusion", RoleQuery)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())
	assert.Equal(t, 1, cached.Len())
}

func TestCachedEmbedderRoleSeparatesEntries(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "same text", RoleQuery)
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "same text", RoleDocument)
	require.NoError(t, err)

	// Same text under a different role must not share a cache slot.
	assert.Equal(t, int64(2), inner.calls.Load())
	assert.Equal(t, 2, cached.Len())
}

func TestCachedEmbedderBatchPartialMiss(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	warm, err := cached.Embed(ctx, "b", RoleDocument)
	require.NoError(t, err)
	inner.calls.Store(0)

	vectors, err := cached.EmbedBatch(ctx, []string{"a", "b", "c"}, RoleDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, warm, vectors[1])
	assert.Equal(t, int64(2), inner.calls.Load(), "only misses reach the backend")
}

func TestCachedEmbedderEviction(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := cached.Embed(ctx, text, RoleQuery)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cached.Len())
}
