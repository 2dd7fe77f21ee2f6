package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries in a SQLite database so the cache survives restarts.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteStore opens (or creates) the cache database at path. ":memory:" opens a
// private in-memory database, which is what the tests use.
func NewSQLiteStore(path string, maxEntries int) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	s := &SQLiteStore{db: db, maxEntries: maxEntries}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS enhance_cache (
		key TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		enhanced_prompt TEXT NOT NULL,
		context_snapshot TEXT NOT NULL,     -- JSON ContextUsed
		framework_detection TEXT NOT NULL,  -- JSON FrameworkDetectionResult
		prompt_terms TEXT NOT NULL,         -- JSON array
		project_signature TEXT NOT NULL DEFAULT '',
		quality_score REAL NOT NULL DEFAULT 0,
		hits INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL         -- unix nanoseconds
	);
	CREATE INDEX IF NOT EXISTS idx_enhance_cache_created ON enhance_cache(created_at);
	`)
	return err
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		e                          Entry
		snapshot, detection, terms string
		createdAt                  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key, fingerprint, enhanced_prompt, context_snapshot, framework_detection,
		       prompt_terms, project_signature, quality_score, hits, created_at
		FROM enhance_cache WHERE key = ?`, key).Scan(
		&e.Key, &e.Fingerprint, &e.EnhancedPrompt, &snapshot, &detection,
		&terms, &e.ProjectSignature, &e.QualityScore, &e.Hits, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}

	if err := json.Unmarshal([]byte(snapshot), &e.ContextSnapshot); err != nil {
		return nil, fmt.Errorf("decode context snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(detection), &e.FrameworkDetection); err != nil {
		return nil, fmt.Errorf("decode framework detection: %w", err)
	}
	if err := json.Unmarshal([]byte(terms), &e.PromptTerms); err != nil {
		return nil, fmt.Errorf("decode prompt terms: %w", err)
	}
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	return &e, nil
}

func (s *SQLiteStore) Touch(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE enhance_cache SET hits = hits + 1 WHERE key = ?`, key); err != nil {
		return fmt.Errorf("record hit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, e *Entry) error {
	snapshot, err := json.Marshal(e.ContextSnapshot)
	if err != nil {
		return fmt.Errorf("encode context snapshot: %w", err)
	}
	detection, err := json.Marshal(e.FrameworkDetection)
	if err != nil {
		return fmt.Errorf("encode framework detection: %w", err)
	}
	terms, err := json.Marshal(e.PromptTerms)
	if err != nil {
		return fmt.Errorf("encode prompt terms: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enhance_cache (key, fingerprint, enhanced_prompt, context_snapshot, framework_detection,
		                           prompt_terms, project_signature, quality_score, hits, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			enhanced_prompt = excluded.enhanced_prompt,
			context_snapshot = excluded.context_snapshot,
			framework_detection = excluded.framework_detection,
			prompt_terms = excluded.prompt_terms,
			project_signature = excluded.project_signature,
			quality_score = excluded.quality_score,
			hits = excluded.hits,
			created_at = excluded.created_at`,
		e.Key, e.Fingerprint, e.EnhancedPrompt, string(snapshot), string(detection),
		string(terms), e.ProjectSignature, e.QualityScore, e.Hits, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM enhance_cache WHERE key IN (
			SELECT key FROM enhance_cache ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("evict entries: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM enhance_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (StoreStats, error) {
	var (
		st             StoreStats
		oldest, newest sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(hits), 0), MIN(created_at), MAX(created_at) FROM enhance_cache`).
		Scan(&st.Entries, &st.TotalHits, &oldest, &newest)
	if err != nil {
		return st, fmt.Errorf("query stats: %w", err)
	}
	if oldest.Valid {
		st.Oldest = time.Unix(0, oldest.Int64).UTC()
	}
	if newest.Valid {
		st.Newest = time.Unix(0, newest.Int64).UTC()
	}
	return st, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM enhance_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM enhance_cache WHERE created_at < ?`, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return int(n), nil
}
