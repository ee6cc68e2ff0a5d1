package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
)

// Options configures the store.
type Options struct {
	// Path is the database file. Empty means in-memory (tests).
	Path string

	// CacheMB is the SQLite page cache size in MB (default: 64).
	CacheMB int

	// LockPath guards the data directory against concurrent writer
	// processes. Empty disables locking (in-memory databases).
	LockPath string
}

// Store is the SQLite-backed corpus store. It owns papers and their
// derived artifacts (FTS5 entries, embedding blobs) and implements
// LexicalIndex, VectorIndex, and PaperSource.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

var (
	_ LexicalIndex = (*Store)(nil)
	_ VectorIndex  = (*Store)(nil)
	_ PaperSource  = (*Store)(nil)
)

// Open opens (or creates) the store and initializes the schema.
func Open(opts Options) (*Store, error) {
	dsn := ":memory:"
	var lock *flock.Flock

	if opts.Path != "" {
		dir := filepath.Dir(opts.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}

		if opts.LockPath != "" {
			lock = flock.New(opts.LockPath)
			held, err := lock.TryLock()
			if err != nil {
				return nil, pterrors.Wrap(pterrors.ErrCodeStoreLocked, err)
			}
			if !held {
				return nil, pterrors.New(pterrors.ErrCodeStoreLocked,
					fmt.Sprintf("data directory locked by another process: %s", opts.LockPath), nil)
			}
		}

		dsn = opts.Path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		releaseLock(lock)
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer connection prevents lock contention under WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	cacheMB := opts.CacheMB
	if cacheMB <= 0 {
		cacheMB = 64
	}

	// modernc.org/sqlite ignores some DSN params, so pragmas are set explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheMB*1024),
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			releaseLock(lock)
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{db: db, lock: lock}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		releaseLock(lock)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func releaseLock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}

// Close releases the database and the data directory lock.
func (s *Store) Close() error {
	err := s.db.Close()
	releaseLock(s.lock)
	return err
}

// DB exposes the underlying handle for packages sharing the database
// (telemetry). Schema ownership stays with those packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL DEFAULT '',
		bio           TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS papers (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		authors    TEXT NOT NULL,
		arxiv_id   TEXT NOT NULL DEFAULT '',
		doi        TEXT NOT NULL DEFAULT '',
		paper_url  TEXT NOT NULL DEFAULT '',
		abstract   TEXT NOT NULL DEFAULT '',
		summary    TEXT NOT NULL,
		is_private INTEGER NOT NULL DEFAULT 0,
		date_read  TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_papers_user ON papers(user_id);
	CREATE INDEX IF NOT EXISTS idx_papers_private ON papers(is_private);
	CREATE INDEX IF NOT EXISTS idx_papers_created ON papers(created_at);

	CREATE TABLE IF NOT EXISTS tags (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name    TEXT NOT NULL,
		UNIQUE(user_id, name)
	);

	CREATE TABLE IF NOT EXISTS paper_tags (
		paper_id INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
		tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (paper_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS embeddings (
		paper_id   INTEGER PRIMARY KEY REFERENCES papers(id) ON DELETE CASCADE,
		embedding  BLOB NOT NULL,
		model      TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);

	-- Lexical index over weighted fields. paper_id is stored, not searched.
	CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
		paper_id UNINDEXED,
		title,
		authors,
		abstract,
		summary,
		tokenize='unicode61'
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- Users ---

// CreateUser inserts a new user. Username collisions return a
// duplicate-user error.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, display_name, bio, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.Bio, u.PasswordHash, u.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return pterrors.New(pterrors.ErrCodeDuplicateUser,
				fmt.Sprintf("username already taken: %s", u.Username), err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username = ?", username)
}

// GetUserByID returns the user with the given id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, bio, password_hash, created_at
		 FROM users WHERE `+where, arg)

	var u User
	var created int64
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Bio, &u.PasswordHash, &created)
	if err == sql.ErrNoRows {
		return nil, pterrors.New(pterrors.ErrCodeUserNotFound, "user not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

// --- Papers ---

// CreatePaper inserts a paper together with its lexical entry and tag
// links in one transaction. The embedding is computed later by the
// async worker; until then the paper is reachable via lexical search only.
func (s *Store) CreatePaper(ctx context.Context, p *Paper) error {
	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Tags = normalizeTags(p.Tags)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO papers (user_id, title, authors, arxiv_id, doi, paper_url,
		                     abstract, summary, is_private, date_read, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Title, p.Authors, p.ArxivID, p.DOI, p.PaperURL,
		p.Abstract, p.Summary, boolToInt(p.IsPrivate), nullString(p.DateRead),
		p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	if err := replaceLexicalEntry(ctx, tx, p); err != nil {
		return err
	}
	if err := setTags(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePaper rewrites a paper and its lexical entry atomically. The
// stale embedding is dropped in the same transaction so the paper is
// re-embedded rather than searched against outdated content.
func (s *Store) UpdatePaper(ctx context.Context, p *Paper) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	p.Tags = normalizeTags(p.Tags)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE papers SET title = ?, authors = ?, arxiv_id = ?, doi = ?, paper_url = ?,
		        abstract = ?, summary = ?, is_private = ?, date_read = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Authors, p.ArxivID, p.DOI, p.PaperURL,
		p.Abstract, p.Summary, boolToInt(p.IsPrivate), nullString(p.DateRead),
		p.UpdatedAt.Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("update paper: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pterrors.NotFound(fmt.Sprintf("paper %d not found", p.ID))
	}

	if err := replaceLexicalEntry(ctx, tx, p); err != nil {
		return err
	}
	if err := setTags(ctx, tx, p); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE paper_id = ?`, p.ID); err != nil {
		return fmt.Errorf("drop stale embedding: %w", err)
	}

	return tx.Commit()
}

// DeletePaper removes a paper and all derived artifacts in one transaction.
func (s *Store) DeletePaper(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 virtual tables have no foreign keys, so the lexical entry is
	// removed explicitly alongside the row cascades.
	if _, err := tx.ExecContext(ctx, `DELETE FROM papers_fts WHERE paper_id = ?`, id); err != nil {
		return fmt.Errorf("delete lexical entry: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM papers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pterrors.NotFound(fmt.Sprintf("paper %d not found", id))
	}

	return tx.Commit()
}

// replaceLexicalEntry rewrites the FTS row for p. Delete-then-insert keeps
// the entry whole: a reader inside another transaction never sees a mix of
// old and new field values.
func replaceLexicalEntry(ctx context.Context, tx *sql.Tx, p *Paper) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM papers_fts WHERE paper_id = ?`, p.ID); err != nil {
		return fmt.Errorf("delete lexical entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO papers_fts (paper_id, title, authors, abstract, summary)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Authors, p.Abstract, p.Summary); err != nil {
		return fmt.Errorf("insert lexical entry: %w", err)
	}
	return nil
}

// setTags replaces a paper's tag links, creating missing tags for the owner.
func setTags(ctx context.Context, tx *sql.Tx, p *Paper) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM paper_tags WHERE paper_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, name := range p.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (user_id, name) VALUES (?, ?)`, p.UserID, name); err != nil {
			return fmt.Errorf("create tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO paper_tags (paper_id, tag_id)
			 SELECT ?, id FROM tags WHERE user_id = ? AND name = ?`,
			p.ID, p.UserID, name); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// normalizeTags lowercases, trims, and dedupes tag names preserving order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// GetPaper returns a single paper with owner and tag metadata.
func (s *Store) GetPaper(ctx context.Context, id int64) (*Paper, error) {
	papers, err := s.GetPapersByID(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, pterrors.NotFound(fmt.Sprintf("paper %d not found", id))
	}
	return papers[0], nil
}

// GetPapersByID batch-fetches papers with owner and tag metadata.
// Missing ids are silently omitted; order is not guaranteed.
func (s *Store) GetPapersByID(ctx context.Context, ids []int64) ([]*Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.user_id, p.title, p.authors, p.arxiv_id, p.doi, p.paper_url,
		       p.abstract, p.summary, p.is_private, p.date_read, p.created_at, p.updated_at,
		       u.username, u.display_name
		FROM papers p
		JOIN users u ON u.id = p.user_id
		WHERE p.id IN (%s)`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get papers: %w", err)
	}
	defer rows.Close()

	var papers []*Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, papers); err != nil {
		return nil, err
	}
	return papers, nil
}

// ListPapers returns visible papers matching the filter, newest first,
// along with the total count before pagination.
func (s *Store) ListPapers(ctx context.Context, vis Visibility, filter PaperFilter) ([]*Paper, int, error) {
	where, args := vis.Where("p")
	joins := ""

	if filter.UserID != nil {
		where += " AND p.user_id = ?"
		args = append(args, *filter.UserID)
	}
	if filter.Tag != "" {
		joins = ` JOIN paper_tags pt ON pt.paper_id = p.id
		          JOIN tags t ON t.id = pt.tag_id`
		where += " AND t.name = ?"
		args = append(args, strings.ToLower(filter.Tag))
	}

	var total int
	countQuery := "SELECT COUNT(DISTINCT p.id) FROM papers p" + joins + " WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count papers: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT DISTINCT p.id, p.user_id, p.title, p.authors, p.arxiv_id, p.doi, p.paper_url,
		       p.abstract, p.summary, p.is_private, p.date_read, p.created_at, p.updated_at,
		       u.username, u.display_name
		FROM papers p
		JOIN users u ON u.id = p.user_id` + joins + `
		WHERE ` + where + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var papers []*Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, 0, err
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachTags(ctx, papers); err != nil {
		return nil, 0, err
	}
	return papers, total, nil
}

func scanPaper(rows *sql.Rows) (*Paper, error) {
	var p Paper
	var isPrivate int
	var dateRead sql.NullString
	var created, updated int64

	err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Authors, &p.ArxivID, &p.DOI, &p.PaperURL,
		&p.Abstract, &p.Summary, &isPrivate, &dateRead, &created, &updated,
		&p.OwnerUsername, &p.OwnerDisplayName)
	if err != nil {
		return nil, fmt.Errorf("scan paper: %w", err)
	}

	p.IsPrivate = isPrivate != 0
	p.DateRead = dateRead.String
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return &p, nil
}

func (s *Store) attachTags(ctx context.Context, papers []*Paper) error {
	if len(papers) == 0 {
		return nil
	}

	byID := make(map[int64]*Paper, len(papers))
	placeholders := make([]string, len(papers))
	args := make([]any, len(papers))
	for i, p := range papers {
		byID[p.ID] = p
		placeholders[i] = "?"
		args[i] = p.ID
		p.Tags = nil
	}

	query := fmt.Sprintf(`
		SELECT pt.paper_id, t.name
		FROM paper_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.paper_id IN (%s)
		ORDER BY t.name`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("fetch tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var paperID int64
		var name string
		if err := rows.Scan(&paperID, &name); err != nil {
			return err
		}
		if p, ok := byID[paperID]; ok {
			p.Tags = append(p.Tags, name)
		}
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// --- Tags ---

// ListTags returns the user's tags with paper counts, sorted by name.
func (s *Store) ListTags(ctx context.Context, userID int64) ([]*TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, COUNT(pt.paper_id)
		FROM tags t
		LEFT JOIN paper_tags pt ON pt.tag_id = t.id
		WHERE t.user_id = ?
		GROUP BY t.id, t.name
		ORDER BY t.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []*TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		tags = append(tags, &tc)
	}
	return tags, rows.Err()
}

// AutocompleteTags returns up to limit of the user's tag names with the
// given prefix, case-insensitively.
func (s *Store) AutocompleteTags(ctx context.Context, userID int64, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := escapeLike(strings.ToLower(strings.TrimSpace(prefix))) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM tags
		WHERE user_id = ? AND name LIKE ? ESCAPE '\'
		ORDER BY name
		LIMIT ?`, userID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete tags: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// --- Reading activity ---

// ReadingActivity returns per-day counts of papers read by the user on or
// after since (YYYY-MM-DD), restricted by the caller's visibility.
func (s *Store) ReadingActivity(ctx context.Context, userID int64, vis Visibility, since string) (map[string]int, error) {
	where, args := vis.Where("p")
	query := `
		SELECT p.date_read, COUNT(*)
		FROM papers p
		WHERE p.user_id = ? AND p.date_read IS NOT NULL AND p.date_read >= ? AND ` + where + `
		GROUP BY p.date_read`
	args = append([]any{userID, since}, args...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading activity: %w", err)
	}
	defer rows.Close()

	activity := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		activity[day] = count
	}
	return activity, rows.Err()
}

// --- Embeddings ---

// SaveEmbedding upserts a paper's embedding blob. Safe to retry: the
// write is idempotent for identical input.
func (s *Store) SaveEmbedding(ctx context.Context, paperID int64, vec []float32, model string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (paper_id, embedding, model, updated_at)
		 VALUES (?, ?, ?, ?)`,
		paperID, EncodeVector(vec), model, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns a paper's embedding, or nil when absent.
func (s *Store) GetEmbedding(ctx context.Context, paperID int64) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding FROM embeddings WHERE paper_id = ?`, paperID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	return DecodeVector(blob)
}

// PapersPendingEmbedding returns papers without an embedding, oldest first.
// The async worker drains this set.
func (s *Store) PapersPendingEmbedding(ctx context.Context, limit int) ([]*Paper, error) {
	if limit <= 0 {
		limit = 64
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.abstract, p.summary
		FROM papers p
		LEFT JOIN embeddings e ON e.paper_id = p.id
		WHERE e.paper_id IS NULL
		ORDER BY p.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending embeddings: %w", err)
	}
	defer rows.Close()

	var papers []*Paper
	for rows.Next() {
		var p Paper
		if err := rows.Scan(&p.ID, &p.Abstract, &p.Summary); err != nil {
			return nil, err
		}
		papers = append(papers, &p)
	}
	return papers, rows.Err()
}

// Stats returns corpus counters for status reporting.
func (s *Store) Stats(ctx context.Context) (papers, embeddings int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&papers); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&embeddings); err != nil {
		return 0, 0, err
	}
	return papers, embeddings, nil
}

// SortPapersByID orders papers in place by id ascending. Batch reads do
// not guarantee order; callers needing determinism use this.
func SortPapersByID(papers []*Paper) {
	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
}
