package telemetry

import (
	"database/sql"
	"fmt"
)

// MetricsStore persists aggregated search metrics in SQLite, sharing
// the corpus database connection.
type MetricsStore struct {
	db *sql.DB
}

// NewMetricsStore creates a metrics store and its schema.
func NewMetricsStore(db *sql.DB) (*MetricsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS search_latency_stats (
		date   TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);

	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		query     TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create telemetry schema: %w", err)
	}
	return &MetricsStore{db: db}, nil
}

// SaveLatencyCounts upserts daily latency bucket counts.
func (s *MetricsStore) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO search_latency_stats (date, bucket, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for bucket, count := range counts {
		if _, err := stmt.Exec(date, string(bucket), count); err != nil {
			return fmt.Errorf("save bucket %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// SaveZeroResultQueries appends zero-result queries, trimming the table
// to the most recent entries.
func (s *MetricsStore) SaveZeroResultQueries(queries []string) error {
	if len(queries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range queries {
		if _, err := tx.Exec(`INSERT INTO zero_result_queries (query) VALUES (?)`, q); err != nil {
			return fmt.Errorf("save zero-result query: %w", err)
		}
	}

	_, err = tx.Exec(`
		DELETE FROM zero_result_queries
		WHERE id NOT IN (
			SELECT id FROM zero_result_queries ORDER BY id DESC LIMIT ?
		)`, zeroResultCap)
	if err != nil {
		return fmt.Errorf("trim zero-result queries: %w", err)
	}

	return tx.Commit()
}

// LatencyCounts returns the persisted bucket counts for a day.
func (s *MetricsStore) LatencyCounts(date string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.Query(
		`SELECT bucket, count FROM search_latency_stats WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("load latency counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, err
		}
		counts[LatencyBucket(bucket)] = count
	}
	return counts, rows.Err()
}

// ZeroResultQueries returns the retained zero-result queries, newest last.
func (s *MetricsStore) ZeroResultQueries() ([]string, error) {
	rows, err := s.db.Query(`SELECT query FROM zero_result_queries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load zero-result queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
