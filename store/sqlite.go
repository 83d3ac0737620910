package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Compile-time interface check.
var _ CounterCache = (*SQLiteStore)(nil)

// SQLiteStore is a CounterCache backed by SQLite. Each counter is a row with an
// absolute expiry; expired rows read as absent and are re-created on the next
// increment.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteTimeSource overrides the time source used to stamp and evaluate expiry.
func WithSQLiteTimeSource(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path and
// initialises the schema. Use ":memory:" for an in-memory SQLite database.
func NewSQLiteStore(dsn string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("swc/store: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS swc_counters (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			count      INTEGER NOT NULL DEFAULT 0,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("swc/store: create table: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Increment atomically adds step to the counter in a single upsert. A missing
// or expired row is (re)created at step with a fresh expiry; a live row keeps
// its original expiry.
func (s *SQLiteStore) Increment(ctx context.Context, namespace, key string, ttl time.Duration, step int64) (int64, error) {
	now := s.now().Unix()

	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO swc_counters (namespace, key, count, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			count = CASE WHEN swc_counters.expires_at <= ? THEN excluded.count
			             ELSE swc_counters.count + excluded.count END,
			expires_at = CASE WHEN swc_counters.expires_at <= ? THEN excluded.expires_at
			                  ELSE swc_counters.expires_at END
		RETURNING count`,
		namespace, key, step, now+TTLSeconds(ttl), now, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("swc/store: increment: %w", err)
	}
	return count, nil
}

// Get returns the counter value for key, or ok == false if it is absent or expired.
func (s *SQLiteStore) Get(ctx context.Context, namespace, key string) (int64, bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM swc_counters WHERE namespace = ? AND key = ? AND expires_at > ?`,
		namespace, key, s.now().Unix(),
	).Scan(&count)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("swc/store: get: %w", err)
	}
	return count, true, nil
}

// Sweep deletes expired rows and returns how many were removed.
func (s *SQLiteStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM swc_counters WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("swc/store: sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("swc/store: sweep: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
