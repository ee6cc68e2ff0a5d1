// Package embed provides vector embedders for paper content and search
// queries. Embedding models distinguish between the text being indexed
// and the text being asked, so every call carries a Role.
package embed

import (
	"context"
	"math"
	"time"
)

// Role tells the embedder which side of the retrieval it is encoding.
// Asymmetric models prepend an instruction to queries; encoding a query
// as a document (or vice versa) silently degrades ranking quality.
type Role string

const (
	// RoleDocument marks text that is stored and searched against.
	RoleDocument Role = "document"

	// RoleQuery marks text a user is searching with.
	RoleQuery Role = "query"
)

const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// MaxBatchSize caps batch requests to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultTimeout is the default timeout for embedding requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 3

	// StaticDimensions is the embedding dimension of the static embedder.
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text in the given role.
	Embed(ctx context.Context, text string, role Role) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in the given role.
	// The result has one vector per input, in order.
	EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length. Zero vectors are
// returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
