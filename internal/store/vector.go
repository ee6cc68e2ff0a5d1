package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
)

// EncodeVector packs a float32 vector into a contiguous little-endian
// blob. DecodeVector(EncodeVector(v)) reproduces v bit for bit.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a blob produced by EncodeVector.
func DecodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, pterrors.New(pterrors.ErrCodeCorruptIndex,
			fmt.Sprintf("embedding blob length %d is not a multiple of 4", len(blob)), nil)
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// SearchVector scores every visible paper's stored embedding against
// queryVec by cosine similarity and returns the top limit matches,
// highest first, ties broken by paper id ascending.
//
// Stored vectors whose dimension disagrees with the query are logged
// and skipped; a model change must not take search down. Papers without
// an embedding simply do not participate.
func (s *Store) SearchVector(ctx context.Context, queryVec []float32, vis Visibility, limit int) ([]VectorResult, error) {
	if len(queryVec) == 0 || limit <= 0 {
		return nil, nil
	}

	queryNorm := vectorNorm(queryVec)
	if queryNorm == 0 {
		return nil, nil
	}

	where, args := vis.Where("p")
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.paper_id, e.embedding
		FROM embeddings e
		JOIN papers p ON p.id = e.paper_id
		WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []VectorResult
	for rows.Next() {
		var paperID int64
		var blob []byte
		if err := rows.Scan(&paperID, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}

		vec, err := DecodeVector(blob)
		if err != nil {
			slog.Warn("skipping corrupt embedding", "paper_id", paperID, "error", err)
			continue
		}
		if len(vec) != len(queryVec) {
			slog.Warn("skipping embedding with mismatched dimension",
				"paper_id", paperID, "stored", len(vec), "query", len(queryVec))
			continue
		}

		score := cosineSimilarity(queryVec, vec, queryNorm)
		results = append(results, VectorResult{PaperID: paperID, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PaperID < results[j].PaperID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity computes dot(q, v) / (|q| * |v|). Zero-norm stored
// vectors score zero rather than dividing by zero.
func cosineSimilarity(q, v []float32, queryNorm float64) float64 {
	var dot, vNormSq float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
		vNormSq += float64(v[i]) * float64(v[i])
	}
	if vNormSq == 0 {
		return 0
	}
	return dot / (queryNorm * math.Sqrt(vNormSq))
}

func vectorNorm(v []float32) float64 {
	var sq float64
	for _, f := range v {
		sq += float64(f) * float64(f)
	}
	return math.Sqrt(sq)
}
