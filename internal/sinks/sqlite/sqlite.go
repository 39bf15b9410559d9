// Package sqlite loads organisations into an embedded SQLite database, for
// local runs without a Postgres instance.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

const schema = `
CREATE TABLE IF NOT EXISTS ` + sinks.Table + ` (
	key        TEXT PRIMARY KEY,
	abn        TEXT,
	name       TEXT,
	sources    TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS organizations_abn ON ` + sinks.Table + ` (abn);`

const upsert = `
INSERT INTO ` + sinks.Table + ` (key, abn, name, sources, data, updated_at)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
	abn = excluded.abn,
	name = excluded.name,
	sources = excluded.sources,
	data = excluded.data,
	updated_at = excluded.updated_at`

// Store is a SQLite-backed sink.
type Store struct {
	db *sql.DB
}

var _ sinks.Sink = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.NewConfigError("sqlite", "storage path is required", nil)
	}

	dsn := "file::memory:"
	if path != ":memory:" {
		dsn = "file:" + filepath.Clean(path)
	}
	dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Name implements sinks.Sink.
func (s *Store) Name() string { return "sqlite" }

// Upsert implements sinks.Sink. All rows are written in one transaction.
func (s *Store) Upsert(ctx context.Context, orgs []records.Organisation) (sinks.Result, error) {
	orgs = sinks.Dedupe(orgs)
	if len(orgs) == 0 {
		return sinks.Result{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sinks.Result{}, errors.WrapIO("begin", sinks.Table, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return sinks.Result{}, errors.WrapIO("prepare", sinks.Table, err)
	}
	defer stmt.Close()

	for _, o := range orgs {
		row, err := sinks.ToRow(o)
		if err != nil {
			return sinks.Result{}, err
		}
		if _, err := stmt.ExecContext(ctx, row.Key, row.ABN, row.Name, row.Sources, string(row.Data), row.UpdatedAt.Format(timeLayout)); err != nil {
			return sinks.Result{}, errors.NewMergeError("upsert", []string{row.Key}, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return sinks.Result{}, errors.WrapIO("commit", sinks.Table, err)
	}
	return sinks.Result{Upserted: len(orgs)}, nil
}

// Get returns the stored organisation for key.
func (s *Store) Get(ctx context.Context, key string) (*records.Organisation, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM `+sinks.Table+` WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("organisation", key)
	}
	if err != nil {
		return nil, errors.WrapIO("read", sinks.Table, err)
	}
	var org records.Organisation
	if err := json.Unmarshal([]byte(data), &org); err != nil {
		return nil, errors.WrapParse("json", key, err)
	}
	return &org, nil
}

// Count returns the number of stored organisations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+sinks.Table).Scan(&n); err != nil {
		return 0, errors.WrapIO("read", sinks.Table, err)
	}
	return n, nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
