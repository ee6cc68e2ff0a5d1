// Package search implements hybrid retrieval over the paper corpus:
// lexical and vector rankings fetched in parallel and fused with
// reciprocal rank fusion.
package search

import (
	"time"

	"github.com/papertrail-app/papertrail/internal/store"
)

const (
	// DefaultRRFConstant dampens the influence of top ranks in fusion.
	DefaultRRFConstant = 60

	// DefaultLimit is the result count when the caller does not ask.
	DefaultLimit = 50

	// MaxLimit caps the result count regardless of what is asked.
	MaxLimit = 100

	// DefaultOverfetchFactor is how many candidates each retrieval path
	// returns per requested result. Fusion can promote a paper that is
	// mediocre in both rankings over one that is good in only one, so
	// each path must see past the cut line.
	DefaultOverfetchFactor = 4
)

// Options controls a single search.
type Options struct {
	// Limit is the maximum number of results. Zero means DefaultLimit;
	// values above MaxLimit are clamped.
	Limit int

	// Visibility restricts retrieval to papers the caller may see.
	Visibility store.Visibility
}

// Result is one fused search hit.
type Result struct {
	Paper *store.Paper `json:"paper"`

	// Score is the raw fused score. Comparable within one response only.
	Score float64 `json:"score"`
}

// Results is a complete search response.
type Results struct {
	Items []Result `json:"items"`

	// Degraded is true when the vector path was skipped because the
	// embedder was unavailable and lexical fallback is enabled. Callers
	// surface this so a degraded ranking is never mistaken for a full one.
	Degraded bool `json:"degraded"`

	// Took is the total search duration.
	Took time.Duration `json:"-"`
}

// ranking is an ordered list of paper ids, best first, as produced by
// one retrieval path.
type ranking []int64
