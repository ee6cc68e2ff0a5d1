// Package store provides the SQLite corpus store for PaperTrail: paper,
// tag, and user persistence, the FTS5 lexical index, and the embedding
// vector index. Lexical entries are kept in sync with papers inside the
// same write transaction; embeddings may lag behind (a paper without an
// embedding is "not yet indexed", not corrupt).
package store

import (
	"context"
	"time"
)

// User is an account that owns papers and tags.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	Bio          string
	PasswordHash string
	CreatedAt    time.Time
}

// Paper is a single reading-list entry.
type Paper struct {
	ID        int64
	UserID    int64
	Title     string
	Authors   string
	ArxivID   string
	DOI       string
	PaperURL  string
	Abstract  string // optional, empty when absent
	Summary   string
	IsPrivate bool
	DateRead  string // YYYY-MM-DD, empty when unset
	CreatedAt time.Time
	UpdatedAt time.Time

	Tags []string

	// Owner display metadata, populated by enriched reads.
	OwnerUsername    string
	OwnerDisplayName string
}

// EmbeddingText returns the text a paper is embedded from:
// abstract and summary joined, or summary alone when there is no abstract.
func (p *Paper) EmbeddingText() string {
	if p.Abstract == "" {
		return p.Summary
	}
	return p.Abstract + "\n\n" + p.Summary
}

// TagCount is a tag with the number of papers carrying it.
type TagCount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Visibility restricts retrieval to public papers plus the caller's own.
// The zero value is the anonymous caller (public papers only). Both
// retrieval paths receive the same value so the predicate cannot diverge.
type Visibility struct {
	UserID *int64
}

// Anonymous returns the visibility of an unauthenticated caller.
func Anonymous() Visibility {
	return Visibility{}
}

// ForUser returns the visibility of an authenticated caller.
func ForUser(userID int64) Visibility {
	return Visibility{UserID: &userID}
}

// Where renders the predicate as a SQL fragment against the papers table
// aliased as alias, with its bind arguments.
func (v Visibility) Where(alias string) (string, []any) {
	if v.UserID == nil {
		return "(" + alias + ".is_private = 0)", nil
	}
	return "(" + alias + ".is_private = 0 OR " + alias + ".user_id = ?)", []any{*v.UserID}
}

// Allows reports whether a single paper is visible to the caller.
func (v Visibility) Allows(p *Paper) bool {
	if !p.IsPrivate {
		return true
	}
	return v.UserID != nil && *v.UserID == p.UserID
}

// LexicalResult is one entry of a lexical ranking: higher score is better.
type LexicalResult struct {
	PaperID int64
	Score   float64
}

// VectorResult is one entry of a vector ranking: cosine similarity in [-1, 1].
type VectorResult struct {
	PaperID int64
	Score   float64
}

// LexicalIndex provides ranked full-text retrieval over papers.
type LexicalIndex interface {
	SearchLexical(ctx context.Context, query string, vis Visibility, limit int) ([]LexicalResult, error)
}

// VectorIndex provides cosine-similarity retrieval over stored embeddings.
type VectorIndex interface {
	SearchVector(ctx context.Context, query []float32, vis Visibility, limit int) ([]VectorResult, error)
}

// PaperSource provides batch paper retrieval for result enrichment.
type PaperSource interface {
	GetPapersByID(ctx context.Context, ids []int64) ([]*Paper, error)
}

// PaperFilter narrows paper listings.
type PaperFilter struct {
	UserID *int64
	Tag    string
	Limit  int
	Offset int
}
