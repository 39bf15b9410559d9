// Package postgres loads organisations into Postgres (including Supabase)
// with batched upserts.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// DefaultBatchSize is the number of rows queued per round trip.
const DefaultBatchSize = 500

const schema = `
CREATE TABLE IF NOT EXISTS ` + sinks.Table + ` (
	key        TEXT PRIMARY KEY,
	abn        TEXT,
	name       TEXT,
	sources    TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const upsert = `
INSERT INTO ` + sinks.Table + ` (key, abn, name, sources, data, updated_at)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
ON CONFLICT (key) DO UPDATE SET
	abn = EXCLUDED.abn,
	name = EXCLUDED.name,
	sources = EXCLUDED.sources,
	data = EXCLUDED.data,
	updated_at = EXCLUDED.updated_at`

// DB is the subset of *pgxpool.Pool the sink uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Sink upserts into the organizations table.
type Sink struct {
	db        DB
	batchSize int
}

var _ sinks.Sink = (*Sink)(nil)

// Connect opens a pool for connString and verifies it.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "parse connection string", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New creates a sink over db.
func New(db DB) *Sink {
	return &Sink{db: db, batchSize: DefaultBatchSize}
}

// WithBatchSize sets rows per batch.
func (s *Sink) WithBatchSize(n int) *Sink {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Name implements sinks.Sink.
func (s *Sink) Name() string { return "postgres" }

// EnsureSchema creates the organizations table when missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return errors.WrapIO("create", sinks.Table, err)
	}
	return nil
}

// Upsert implements sinks.Sink.
func (s *Sink) Upsert(ctx context.Context, orgs []records.Organisation) (sinks.Result, error) {
	orgs = sinks.Dedupe(orgs)
	var res sinks.Result
	for start := 0; start < len(orgs); start += s.batchSize {
		end := min(start+s.batchSize, len(orgs))
		n, err := s.upsertBatch(ctx, orgs[start:end])
		res.Upserted += n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Sink) upsertBatch(ctx context.Context, orgs []records.Organisation) (int, error) {
	batch := &pgx.Batch{}
	keys := make([]string, 0, len(orgs))
	for _, o := range orgs {
		row, err := sinks.ToRow(o)
		if err != nil {
			return 0, err
		}
		batch.Queue(upsert, row.Key, row.ABN, row.Name, row.Sources, row.Data, row.UpdatedAt)
		keys = append(keys, row.Key)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	upserted := 0
	for i := range orgs {
		ct, err := results.Exec()
		if err != nil {
			return upserted, errors.NewMergeError("upsert", keys[i:i+1], err)
		}
		upserted += int(ct.RowsAffected())
	}
	return upserted, nil
}
