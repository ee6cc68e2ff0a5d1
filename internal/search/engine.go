package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papertrail-app/papertrail/internal/config"
	"github.com/papertrail-app/papertrail/internal/embed"
	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

// Engine runs hybrid searches. Both retrieval paths receive the same
// visibility value, so a paper hidden from one path is hidden from both.
type Engine struct {
	lexical  store.LexicalIndex
	vector   store.VectorIndex
	papers   store.PaperSource
	embedder embed.Embedder
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// NewEngine wires a search engine over the given indexes and embedder.
func NewEngine(lexical store.LexicalIndex, vector store.VectorIndex, papers store.PaperSource, embedder embed.Embedder, cfg config.SearchConfig, logger *slog.Logger) *Engine {
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = DefaultRRFConstant
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxLimit
	}
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = DefaultOverfetchFactor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		lexical:  lexical,
		vector:   vector,
		papers:   papers,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search runs a hybrid search: the lexical and vector rankings are
// fetched in parallel, fused, and the winners are enriched into full
// papers. A blank query returns an empty result. When the embedder is
// down the search fails, unless lexical fallback is enabled, in which
// case the lexical ranking alone is returned flagged as degraded.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (*Results, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return &Results{Items: []Result{}}, nil
	}

	limit := e.clampLimit(opts.Limit)
	fetchN := limit * e.cfg.OverfetchFactor

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var (
		lexRanking ranking
		vecRanking ranking
		degraded   bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := e.lexical.SearchLexical(gctx, query, opts.Visibility, fetchN)
		if err != nil {
			return pterrors.New(pterrors.ErrCodeSearchFailed, "lexical retrieval failed", err)
		}
		lexRanking = make(ranking, len(hits))
		for i, h := range hits {
			lexRanking[i] = h.PaperID
		}
		return nil
	})

	g.Go(func() error {
		queryVec, err := e.embedder.Embed(gctx, query, embed.RoleQuery)
		if err != nil {
			if e.cfg.LexicalFallback {
				degraded = true
				e.logger.Warn("embedder unavailable, serving lexical-only results",
					"query_len", len(query), "error", err)
				return nil
			}
			return pterrors.New(pterrors.ErrCodeEmbedderUnavailable, "query embedding failed", err)
		}

		hits, err := e.vector.SearchVector(gctx, queryVec, opts.Visibility, fetchN)
		if err != nil {
			return pterrors.New(pterrors.ErrCodeSearchFailed, "vector retrieval failed", err)
		}
		vecRanking = make(ranking, len(hits))
		for i, h := range hits {
			vecRanking[i] = h.PaperID
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuse(e.cfg.RRFConstant, lexRanking, vecRanking)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	items, err := e.enrich(ctx, fused)
	if err != nil {
		return nil, err
	}

	took := time.Since(start)
	e.logger.Debug("search complete",
		"lexical_hits", len(lexRanking),
		"vector_hits", len(vecRanking),
		"results", len(items),
		"degraded", degraded,
		"took_ms", took.Milliseconds())

	return &Results{Items: items, Degraded: degraded, Took: took}, nil
}

// Lexical runs the lexical path alone and returns fused-shape results.
// Used by callers that explicitly want keyword matching.
func (e *Engine) Lexical(ctx context.Context, query string, opts Options) (*Results, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return &Results{Items: []Result{}}, nil
	}

	limit := e.clampLimit(opts.Limit)
	hits, err := e.lexical.SearchLexical(ctx, query, opts.Visibility, limit)
	if err != nil {
		return nil, pterrors.New(pterrors.ErrCodeSearchFailed, "lexical retrieval failed", err)
	}

	fused := make([]fusedScore, len(hits))
	for i, h := range hits {
		fused[i] = fusedScore{paperID: h.PaperID, score: h.Score}
	}

	items, err := e.enrich(ctx, fused)
	if err != nil {
		return nil, err
	}
	return &Results{Items: items, Took: time.Since(start)}, nil
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// enrich resolves fused ids into papers, preserving fusion order. Ids
// deleted between retrieval and enrichment drop out silently.
func (e *Engine) enrich(ctx context.Context, fused []fusedScore) ([]Result, error) {
	if len(fused) == 0 {
		return []Result{}, nil
	}

	ids := make([]int64, len(fused))
	for i, f := range fused {
		ids[i] = f.paperID
	}

	papers, err := e.papers.GetPapersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("enrich results: %w", err)
	}

	byID := make(map[int64]*store.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	items := make([]Result, 0, len(fused))
	for _, f := range fused {
		p, ok := byID[f.paperID]
		if !ok {
			continue
		}
		items = append(items, Result{Paper: p, Score: f.score})
	}
	return items, nil
}
