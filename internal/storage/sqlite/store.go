// Package sqlite stores daily digests in a single SQLite database, one row per date.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/final0920/mcp-worklog/internal/digest"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/shardqueue"
	"github.com/final0920/mcp-worklog/internal/storage"
)

// Store implements worklog.Storage on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at path and ensures the schema.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Save upserts the rendered digest inside one transaction.
func (s *Store) Save(ctx context.Context, d *model.Digest) (_ string, err error) {
	defer func() { storage.ObserveSave("sqlite", err) }()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO digests (date, content, entry_count, updated_at) VALUES (?,?,?,?)
        ON CONFLICT(date) DO UPDATE SET content = excluded.content, entry_count = excluded.entry_count, updated_at = excluded.updated_at`,
		d.DateString(), digest.Format(d), d.Count(), time.Now().UTC())
	if err != nil {
		return "", classify(err)
	}
	if err := tx.Commit(); err != nil {
		return "", classify(err)
	}
	return s.location(d.DateString()), nil
}

// Load returns the digest for date or model.ErrNotFound.
func (s *Store) Load(ctx context.Context, date time.Time) (*model.Digest, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM digests WHERE date = ?`, date.Format(model.DateLayout)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return digest.Parse(content, date), nil
}

// Exists reports whether a row exists for date.
func (s *Store) Exists(ctx context.Context, date time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM digests WHERE date = ?`, date.Format(model.DateLayout)).Scan(&n)
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// HealthPing pings the database.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) location(date string) string {
	return fmt.Sprintf("sqlite://%s#%s", s.path, date)
}

// classify marks lock contention as retryable so the per-date executor re-runs the job.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return shardqueue.Retryable(err)
		}
	}
	return err
}
