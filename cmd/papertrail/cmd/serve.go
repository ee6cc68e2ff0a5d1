package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papertrail-app/papertrail/internal/async"
	"github.com/papertrail-app/papertrail/internal/auth"
	"github.com/papertrail-app/papertrail/internal/embed"
	"github.com/papertrail-app/papertrail/internal/preflight"
	"github.com/papertrail-app/papertrail/internal/search"
	"github.com/papertrail-app/papertrail/internal/store"
	"github.com/papertrail-app/papertrail/internal/telemetry"
	"github.com/papertrail-app/papertrail/internal/web"
)

// metricsFlushInterval is how often search metrics persist to SQLite.
const metricsFlushInterval = 5 * time.Minute

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the PaperTrail API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), skipChecks)
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip pre-flight checks")
	return cmd
}

func runServe(ctx context.Context, skipChecks bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	embedder, err := embed.New(ctx, cfg.Embeddings)
	if err != nil {
		// With lexical fallback on, the server can start without the
		// embedding backend and serve degraded searches.
		if !cfg.Search.LexicalFallback {
			return err
		}
		logger.Warn("embedder unavailable at startup", "error", err)
		embedder = embed.NewCachedEmbedder(brokenStartupEmbedder{cause: err}, 1)
	}
	defer embedder.Close()

	if !skipChecks {
		results := preflight.RunAll(ctx, cfg, embedder)
		for _, r := range results {
			logger.Info("preflight", "check", r.Name, "status", r.Status.String(), "detail", r.Message)
		}
		if preflight.HasCritical(results) {
			return fmt.Errorf("preflight checks failed; fix the issues above or pass --skip-checks")
		}
	}

	st, err := store.Open(store.Options{
		Path:     cfg.DatabasePath(),
		CacheMB:  cfg.Storage.CacheMB,
		LockPath: cfg.LockPath(),
	})
	if err != nil {
		return err
	}
	defer st.Close()

	metricsStore, err := telemetry.NewMetricsStore(st.DB())
	if err != nil {
		return err
	}
	metrics := telemetry.NewMetrics(metricsStore, logger)
	metrics.StartFlusher(metricsFlushInterval)
	defer metrics.StopFlusher()

	engine := search.NewEngine(st, st, st, embedder, cfg.Search, logger)

	worker := async.NewWorker(st, embedder, async.WorkerConfig{}, logger)
	worker.Start(ctx)
	defer worker.Stop()

	tokens, err := auth.NewManager(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	server, err := web.New(cfg, web.Dependencies{
		Store:   st,
		Engine:  engine,
		Worker:  worker,
		Metrics: metrics,
		Tokens:  tokens,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// brokenStartupEmbedder stands in when the real backend was down at
// startup and lexical fallback is enabled. Every call fails, which the
// engine turns into degraded lexical-only responses.
type brokenStartupEmbedder struct {
	cause error
}

func (b brokenStartupEmbedder) Embed(context.Context, string, embed.Role) ([]float32, error) {
	return nil, b.cause
}

func (b brokenStartupEmbedder) EmbedBatch(context.Context, []string, embed.Role) ([][]float32, error) {
	return nil, b.cause
}

func (brokenStartupEmbedder) Dimensions() int                { return 0 }
func (brokenStartupEmbedder) ModelName() string              { return "unavailable" }
func (brokenStartupEmbedder) Available(context.Context) bool { return false }
func (brokenStartupEmbedder) Close() error                   { return nil }
