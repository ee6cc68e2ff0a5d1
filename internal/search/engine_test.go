package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papertrail-app/papertrail/internal/config"
	"github.com/papertrail-app/papertrail/internal/embed"
	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

// corpus is a store plus embedder wired into an engine, seeded per test.
type corpus struct {
	store    *store.Store
	embedder embed.Embedder
	engine   *Engine
}

func newCorpus(t *testing.T, cfg config.SearchConfig) *corpus {
	t.Helper()
	s, err := store.Open(store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	embedder := embed.NewStaticEmbedder()
	return &corpus{
		store:    s,
		embedder: embedder,
		engine:   NewEngine(s, s, s, embedder, cfg, nil),
	}
}

func (c *corpus) addUser(t *testing.T, username string) *store.User {
	t.Helper()
	u := &store.User{Username: username, PasswordHash: "x"}
	require.NoError(t, c.store.CreateUser(context.Background(), u))
	return u
}

// addPaper stores a paper and, when embedText is true, its embedding.
func (c *corpus) addPaper(t *testing.T, p *store.Paper, embedText bool) *store.Paper {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.store.CreatePaper(ctx, p))
	if embedText {
		vec, err := c.embedder.Embed(ctx, p.EmbeddingText(), embed.RoleDocument)
		require.NoError(t, err)
		require.NoError(t, c.store.SaveEmbedding(ctx, p.ID, vec, c.embedder.ModelName()))
	}
	return p
}

func resultIDs(r *Results) []int64 {
	ids := make([]int64, len(r.Items))
	for i, item := range r.Items {
		ids[i] = item.Paper.ID
	}
	return ids
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})

	for _, q := range []string{"", "   ", "\n\t"} {
		results, err := c.engine.Search(context.Background(), q, Options{})
		require.NoError(t, err)
		assert.Empty(t, results.Items)
		assert.False(t, results.Degraded)
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	results, err := c.engine.Search(context.Background(), "anything", Options{})
	require.NoError(t, err)
	assert.Empty(t, results.Items)
}

func TestSearchHybrid(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	u := c.addUser(t, "ada")

	match := c.addPaper(t, &store.Paper{
		UserID: u.ID, Title: "Reciprocal rank fusion",
		Summary: "Summing reciprocal ranks across retrieval systems.",
	}, true)
	related := c.addPaper(t, &store.Paper{
		UserID: u.ID, Title: "Learning to rank",
		Summary: "Rank aggregation and fusion of result lists.",
	}, true)
	c.addPaper(t, &store.Paper{
		UserID: u.ID, Title: "SQLite internals",
		Summary: "Write ahead logging and page caches.",
	}, true)

	results, err := c.engine.Search(context.Background(), "rank fusion", Options{Visibility: store.Anonymous()})
	require.NoError(t, err)
	require.NotEmpty(t, results.Items)
	assert.False(t, results.Degraded)

	assert.Equal(t, match.ID, results.Items[0].Paper.ID)
	assert.Contains(t, resultIDs(results), related.ID)

	// Scores are ordered and positive.
	for i := 1; i < len(results.Items); i++ {
		assert.GreaterOrEqual(t, results.Items[i-1].Score, results.Items[i].Score)
	}
}

func TestSearchDeterministic(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	u := c.addUser(t, "ada")
	for i := 0; i < 10; i++ {
		c.addPaper(t, &store.Paper{
			UserID: u.ID,
			Title:  fmt.Sprintf("Distributed systems paper %d", i),
			Summary: "Consensus replication and distributed logs.",
		}, true)
	}

	first, err := c.engine.Search(context.Background(), "distributed consensus", Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.engine.Search(context.Background(), "distributed consensus", Options{})
		require.NoError(t, err)
		assert.Equal(t, resultIDs(first), resultIDs(again))
	}
}

func TestSearchVisibility(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	ada := c.addUser(t, "ada")
	grace := c.addUser(t, "grace")

	pub := c.addPaper(t, &store.Paper{
		UserID: ada.ID, Title: "Public quantum paper", Summary: "quantum computing",
	}, true)
	priv := c.addPaper(t, &store.Paper{
		UserID: ada.ID, Title: "Private quantum notes", Summary: "quantum computing", IsPrivate: true,
	}, true)

	anon, err := c.engine.Search(context.Background(), "quantum", Options{Visibility: store.Anonymous()})
	require.NoError(t, err)
	assert.Equal(t, []int64{pub.ID}, resultIDs(anon))

	other, err := c.engine.Search(context.Background(), "quantum", Options{Visibility: store.ForUser(grace.ID)})
	require.NoError(t, err)
	assert.NotContains(t, resultIDs(other), priv.ID)

	owner, err := c.engine.Search(context.Background(), "quantum", Options{Visibility: store.ForUser(ada.ID)})
	require.NoError(t, err)
	assert.Contains(t, resultIDs(owner), priv.ID)
}

func TestSearchToleratesUnembeddedPapers(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	u := c.addUser(t, "ada")

	// No embedding yet: the async worker has not caught up.
	fresh := c.addPaper(t, &store.Paper{
		UserID: u.ID, Title: "Fresh transformer paper", Summary: "just added",
	}, false)

	results, err := c.engine.Search(context.Background(), "transformer", Options{})
	require.NoError(t, err)
	assert.Contains(t, resultIDs(results), fresh.ID, "lexical path still finds it")
	assert.False(t, results.Degraded)
}

// brokenEmbedder fails every call, as a stopped backend would.
type brokenEmbedder struct{}

func (brokenEmbedder) Embed(context.Context, string, embed.Role) ([]float32, error) {
	return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable, "backend down", nil)
}
func (brokenEmbedder) EmbedBatch(context.Context, []string, embed.Role) ([][]float32, error) {
	return nil, pterrors.New(pterrors.ErrCodeEmbedderUnavailable, "backend down", nil)
}
func (brokenEmbedder) Dimensions() int                 { return 0 }
func (brokenEmbedder) ModelName() string               { return "broken" }
func (brokenEmbedder) Available(context.Context) bool  { return false }
func (brokenEmbedder) Close() error                    { return nil }

func TestSearchEmbedderDownFails(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	u := c.addUser(t, "ada")
	c.addPaper(t, &store.Paper{UserID: u.ID, Title: "Some paper", Summary: "s"}, true)

	engine := NewEngine(c.store, c.store, c.store, brokenEmbedder{}, config.SearchConfig{}, nil)
	_, err := engine.Search(context.Background(), "paper", Options{})
	require.Error(t, err)
	assert.Equal(t, pterrors.ErrCodeEmbedderUnavailable, pterrors.GetCode(err))
}

func TestSearchEmbedderDownLexicalFallback(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	u := c.addUser(t, "ada")
	p := c.addPaper(t, &store.Paper{UserID: u.ID, Title: "Fallback paper", Summary: "s"}, true)

	engine := NewEngine(c.store, c.store, c.store, brokenEmbedder{},
		config.SearchConfig{LexicalFallback: true}, nil)

	results, err := engine.Search(context.Background(), "fallback", Options{})
	require.NoError(t, err)
	assert.True(t, results.Degraded)
	assert.Equal(t, []int64{p.ID}, resultIDs(results))
}

// wideIndexes return limitless synthetic rankings for clamp tests.
type wideLexical struct{}

func (wideLexical) SearchLexical(_ context.Context, _ string, _ store.Visibility, limit int) ([]store.LexicalResult, error) {
	hits := make([]store.LexicalResult, limit)
	for i := range hits {
		hits[i] = store.LexicalResult{PaperID: int64(i + 1), Score: float64(limit - i)}
	}
	return hits, nil
}

type wideVector struct{}

func (wideVector) SearchVector(_ context.Context, _ []float32, _ store.Visibility, limit int) ([]store.VectorResult, error) {
	hits := make([]store.VectorResult, limit)
	for i := range hits {
		hits[i] = store.VectorResult{PaperID: int64(i + 1), Score: 1 / float64(i+1)}
	}
	return hits, nil
}

type widePapers struct{}

func (widePapers) GetPapersByID(_ context.Context, ids []int64) ([]*store.Paper, error) {
	papers := make([]*store.Paper, len(ids))
	for i, id := range ids {
		papers[i] = &store.Paper{ID: id, Title: fmt.Sprintf("Paper %d", id)}
	}
	return papers, nil
}

func TestSearchLimitClamping(t *testing.T) {
	engine := NewEngine(wideLexical{}, wideVector{}, widePapers{}, embed.NewStaticEmbedder(),
		config.SearchConfig{}, nil)
	ctx := context.Background()

	// Zero limit gets the default.
	results, err := engine.Search(ctx, "q", Options{})
	require.NoError(t, err)
	assert.Len(t, results.Items, DefaultLimit)

	// Oversized limits are clamped to the cap.
	results, err = engine.Search(ctx, "q", Options{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, results.Items, MaxLimit)

	// Small limits are honored exactly.
	results, err = engine.Search(ctx, "q", Options{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results.Items, 3)
}

func TestLexicalOnly(t *testing.T) {
	c := newCorpus(t, config.SearchConfig{})
	u := c.addUser(t, "ada")
	p := c.addPaper(t, &store.Paper{UserID: u.ID, Title: "Keyword paper", Summary: "s"}, false)

	results, err := c.engine.Lexical(context.Background(), "keyword", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int64{p.ID}, resultIDs(results))

	empty, err := c.engine.Lexical(context.Background(), "  ", Options{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}
