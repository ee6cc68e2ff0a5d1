package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
)

const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model. The 0.6B variant
	// keeps memory under control on laptop installs.
	DefaultOllamaModel = "qwen3-embedding:0.6b"

	// queryInstruction is prepended to query-role text. Qwen3 embedding
	// models are asymmetric: documents are embedded bare, queries carry
	// an instruction.
	queryInstruction = "Instruct: Given a query about research papers, retrieve relevant papers\nQuery: "
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434).
	Host string

	// Model is the embedding model to use.
	Model string

	// Dimensions overrides auto-detection when non-zero.
	Dimensions int

	// BatchSize for batch embedding requests (default: 32).
	BatchSize int

	// Timeout for API requests (default: 60s).
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3).
	MaxRetries int
}

func (c *OllamaConfig) withDefaults() OllamaConfig {
	out := *c
	if out.Host == "" {
		out.Host = DefaultOllamaHost
	}
	if out.Model == "" {
		out.Model = DefaultOllamaModel
	}
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.BatchSize > MaxBatchSize {
		out.BatchSize = MaxBatchSize
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = DefaultMaxRetries
	}
	return out
}

// OllamaEmbedder generates embeddings through a local Ollama server.
type OllamaEmbedder struct {
	config     OllamaConfig
	client     *http.Client
	dimensions int
	breaker    *pterrors.CircuitBreaker
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an Ollama-backed embedder. It probes the
// server once to detect the embedding dimension unless one is configured.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	e := &OllamaEmbedder{
		config:  cfg.withDefaults(),
		breaker: pterrors.NewCircuitBreaker("ollama", 5, 30*time.Second),
	}
	e.client = &http.Client{Timeout: e.config.Timeout}

	if e.config.Dimensions > 0 {
		e.dimensions = e.config.Dimensions
		return e, nil
	}

	probe, err := e.embedBatch(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable,
			fmt.Sprintf("ollama not reachable at %s with model %s", e.config.Host, e.config.Model), err)
	}
	if len(probe) == 0 || len(probe[0]) == 0 {
		return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable,
			fmt.Sprintf("model %s returned no embedding", e.config.Model), nil)
	}
	e.dimensions = len(probe[0])
	return e, nil
}

// Embed generates an embedding for a single text in the given role.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string, role Role) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text}, role)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in the given role.
// Transient failures are retried with backoff; a zero vector in the
// response is an error, never a silent stand-in.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	prepared := make([]string, len(texts))
	for i, text := range texts {
		prepared[i] = e.prepare(text, role)
	}

	results := make([][]float32, 0, len(prepared))
	for start := 0; start < len(prepared); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(prepared) {
			end = len(prepared)
		}

		var batch [][]float32
		err := e.breaker.Do(func() error {
			retryCfg := pterrors.DefaultRetryConfig()
			retryCfg.MaxRetries = e.config.MaxRetries
			return pterrors.Retry(ctx, retryCfg, func() error {
				var callErr error
				batch, callErr = e.embedBatch(ctx, prepared[start:end])
				return callErr
			})
		})
		if err != nil {
			if err == pterrors.ErrCircuitOpen {
				return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable,
					fmt.Sprintf("ollama at %s is failing, requests suspended", e.config.Host), err)
			}
			return nil, err
		}
		results = append(results, batch...)
	}

	for i, vec := range results {
		if e.dimensions > 0 && len(vec) != e.dimensions {
			return nil, pterrors.New(pterrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("model %s returned %d dimensions, expected %d",
					e.config.Model, len(vec), e.dimensions), nil)
		}
		if isZeroVector(vec) {
			return nil, pterrors.EmbeddingError(
				fmt.Sprintf("model %s returned a zero vector for input %d", e.config.Model, i), nil)
		}
	}

	return results, nil
}

func (e *OllamaEmbedder) prepare(text string, role Role) string {
	if role == RoleQuery {
		return queryInstruction + text
	}
	return text
}

func (e *OllamaEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, pterrors.New(pterrors.ErrCodeEmbedderTimeout, "embedding request cancelled", err)
		}
		return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable,
			fmt.Sprintf("ollama request to %s failed", e.config.Host), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable,
			fmt.Sprintf("embedding failed with status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, pterrors.EmbeddingError(
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(result.Embeddings)), nil)
	}

	return result.Embeddings, nil
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.config.Model
}

// Available reports whether the Ollama server answers.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Close releases resources.
func (e *OllamaEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
