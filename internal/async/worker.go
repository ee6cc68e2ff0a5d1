package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/papertrail-app/papertrail/internal/embed"
	"github.com/papertrail-app/papertrail/internal/store"
)

const (
	// DefaultPollInterval is how often the worker checks for papers
	// without embeddings when nothing kicks it.
	DefaultPollInterval = 30 * time.Second

	// DefaultBatchSize is how many papers are embedded per pass.
	DefaultBatchSize = 32
)

// WorkerConfig configures the embedding worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Worker drains papers missing embeddings in the background. A failed
// paper stays pending and is retried on the next pass; the worker never
// takes paper writes down with it.
type Worker struct {
	store    *store.Store
	embedder embed.Embedder
	cfg      WorkerConfig
	logger   *slog.Logger
	progress *Progress

	kickCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	running bool
}

// NewWorker creates an embedding worker.
func NewWorker(s *store.Store, embedder embed.Embedder, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:    s,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
		progress: NewProgress(),
		kickCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Progress returns the worker's progress tracker.
func (w *Worker) Progress() *Progress {
	return w.progress
}

// Start launches the worker goroutine. Non-blocking; repeated calls are
// no-ops.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Kick wakes the worker immediately, typically after a paper write.
// Never blocks.
func (w *Worker) Kick() {
	select {
	case w.kickCh <- struct{}{}:
	default:
	}
}

// Stop signals the worker and waits for the current pass to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.progress.setState(StateStopped)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	// First pass on startup catches papers written while we were down.
	w.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx)
		case <-w.kickCh:
			w.pass(ctx)
		}
	}
}

// pass embeds every pending paper in batches until the queue is empty
// or the context ends.
func (w *Worker) pass(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		pending, err := w.store.PapersPendingEmbedding(ctx, w.cfg.BatchSize)
		if err != nil {
			w.progress.recordError(err)
			w.logger.Error("fetch pending embeddings", "error", err)
			return
		}
		if len(pending) == 0 {
			w.progress.setState(StateIdle)
			return
		}

		w.progress.setState(StateEmbedding)

		texts := make([]string, len(pending))
		for i, p := range pending {
			texts[i] = p.EmbeddingText()
		}

		vectors, err := w.embedder.EmbedBatch(ctx, texts, embed.RoleDocument)
		if err != nil {
			// The papers stay pending; the next pass retries them.
			w.progress.recordError(err)
			w.logger.Warn("embedding batch failed, will retry",
				"papers", len(pending), "error", err)
			return
		}

		saved := 0
		for i, p := range pending {
			if err := w.store.SaveEmbedding(ctx, p.ID, vectors[i], w.embedder.ModelName()); err != nil {
				w.progress.recordError(err)
				w.logger.Error("save embedding", "paper_id", p.ID, "error", err)
				continue
			}
			saved++
		}
		w.progress.addEmbedded(saved)
		w.logger.Debug("embedding pass", "embedded", saved, "pending_batch", len(pending))
	}
}
