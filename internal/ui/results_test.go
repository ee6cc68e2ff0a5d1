package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/papertrail-app/papertrail/internal/search"
	"github.com/papertrail-app/papertrail/internal/store"
)

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	results := &search.Results{
		Items: []search.Result{
			{
				Paper: &store.Paper{
					Title:         "Attention Is All You Need",
					Authors:       "Vaswani et al.",
					ArxivID:       "1706.03762",
					Summary:       "The Transformer paper.",
					Tags:          []string{"nlp", "attention"},
					OwnerUsername: "ada",
				},
				Score: 0.0325,
			},
		},
		Took: 12 * time.Millisecond,
	}

	r.RenderResults("attention", results)
	out := buf.String()

	assert.Contains(t, out, "Attention Is All You Need")
	assert.Contains(t, out, "(0.0325)")
	assert.Contains(t, out, "arXiv:1706.03762")
	assert.Contains(t, out, "@ada")
	assert.Contains(t, out, "#nlp #attention")
	assert.Contains(t, out, "1 results in 12ms")

	// Piped output carries no ANSI escapes.
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderResults("nothing", &search.Results{Items: []search.Result{}})
	assert.Contains(t, buf.String(), `no results for "nothing"`)
}

func TestRenderResultsDegraded(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderResults("q", &search.Results{Items: []search.Result{}, Degraded: true})
	assert.Contains(t, buf.String(), "lexical-only")
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderError(errors.New("boom"))
	assert.Contains(t, buf.String(), "error: boom")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))

	long := strings.Repeat("word ", 100)
	out := truncate(long, 40)
	assert.LessOrEqual(t, len(out), 44)
	assert.True(t, strings.HasSuffix(out, "..."))

	// Internal whitespace collapses.
	assert.Equal(t, "a b c", truncate("a\n b\t\tc", 20))
}
