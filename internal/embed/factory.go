package embed

import (
	"context"
	"fmt"

	"github.com/papertrail-app/papertrail/internal/config"
	pterrors "github.com/papertrail-app/papertrail/internal/errors"
)

// New builds the configured embedder, wrapped in the LRU cache.
func New(ctx context.Context, cfg config.EmbeddingsConfig) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case "static":
		inner = NewStaticEmbedder()

	case "", "ollama":
		ollama, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		inner = ollama

	default:
		return nil, pterrors.New(pterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown embeddings provider: %s", cfg.Provider), nil)
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
