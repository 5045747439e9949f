package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists entries across process runs.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func OpenSQLite(path string, ttl time.Duration, now func() time.Time) (*SQLite, error) {
	if now == nil {
		now = time.Now
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
	CREATE TABLE IF NOT EXISTS source_cache (
		key       TEXT PRIMARY KEY,
		value     BLOB NOT NULL,
		stored_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, now: now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value    []byte
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, stored_at FROM source_cache WHERE key = ?`, key,
	).Scan(&value, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %q: %w", key, err)
	}

	if s.now().Sub(time.UnixMilli(storedAt)) >= s.ttl {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM source_cache WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("cache: evict %q: %w", key, err)
		}
		return nil, false, nil
	}

	return value, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_cache (key, value, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at`,
		key, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache: put %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
