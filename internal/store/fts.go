package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// Field weights for bm25(). Title matches dominate, then authors,
// abstract, and summary. paper_id is unindexed and weighted zero.
const bm25Weights = "0.0, 4.0, 3.0, 2.0, 1.0"

// SearchLexical runs a full-text query over the weighted paper fields and
// returns up to limit visible papers, best match first. Queries that the
// FTS engine cannot parse yield an empty result, not an error.
func (s *Store) SearchLexical(ctx context.Context, query string, vis Visibility, limit int) ([]LexicalResult, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	where, args := vis.Where("p")

	// bm25 returns lower-is-better negative values; negate so higher is
	// better, matching the vector side's convention.
	sqlQuery := fmt.Sprintf(`
		SELECT p.id, -bm25(papers_fts, %s) AS score
		FROM papers_fts f
		JOIN papers p ON p.id = f.paper_id
		WHERE papers_fts MATCH ? AND %s
		ORDER BY score DESC, p.id ASC
		LIMIT ?`, bm25Weights, where)

	queryArgs := append([]any{match}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, queryArgs...)
	if err != nil {
		// Unbalanced quotes or stray operators reach the FTS parser as a
		// syntax error. Treat the query as matching nothing.
		if strings.Contains(err.Error(), "fts5: syntax error") ||
			strings.Contains(err.Error(), "unknown special query") {
			slog.Debug("lexical query rejected by fts5", "query", query, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	var results []LexicalResult
	for rows.Next() {
		var r LexicalResult
		if err := rows.Scan(&r.PaperID, &r.Score); err != nil {
			return nil, fmt.Errorf("scan lexical result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// buildMatchQuery converts free text into an FTS5 MATCH expression. Each
// token is double-quoted so user input never reaches the FTS5 query
// grammar as operators (AND, OR, NEAR, *, ^). Tokens are implicitly ANDed.
func buildMatchQuery(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// tokenize splits on anything unicode61 would not index, mirroring the
// tokenizer configured on papers_fts.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
