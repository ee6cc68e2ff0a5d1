package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbeddingCacheSize is the default number of embeddings to
// cache. At 1024 dimensions * 4 bytes * 1000 entries this is about 4MB.
const DefaultEmbeddingCacheSize = 1000

// CachedEmbedder wraps an Embedder with an LRU cache keyed by text,
// role, and model. Repeated searches for the same query skip the
// embedding round trip entirely.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder creates a cached embedder wrapping inner.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// cacheKey hashes role, model, and text together. The role is part of
// the key because asymmetric models embed the same text differently per
// role.
func (c *CachedEmbedder) cacheKey(text string, role Role) string {
	h := sha256.New()
	h.Write([]byte(string(role)))
	h.Write([]byte{0})
	h.Write([]byte(c.inner.ModelName()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Embed returns a cached embedding when available, computing and caching
// otherwise.
func (c *CachedEmbedder) Embed(ctx context.Context, text string, role Role) ([]float32, error) {
	key := c.cacheKey(text, role)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text, role)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch serves cached entries and forwards only the misses to the
// inner embedder, preserving input order in the result.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var missed []string
	var missedIdx []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text, role)); ok {
			results[i] = vec
			continue
		}
		missed = append(missed, text)
		missedIdx = append(missedIdx, i)
	}

	if len(missed) > 0 {
		vectors, err := c.inner.EmbedBatch(ctx, missed, role)
		if err != nil {
			return nil, err
		}
		for j, vec := range vectors {
			i := missedIdx[j]
			results[i] = vec
			c.cache.Add(c.cacheKey(texts[i], role), vec)
		}
	}

	return results, nil
}

// Dimensions returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelName returns the inner embedder's model identifier.
func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Available reports whether the inner embedder is ready.
func (c *CachedEmbedder) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

// Close releases the inner embedder.
func (c *CachedEmbedder) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
