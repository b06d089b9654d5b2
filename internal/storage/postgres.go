package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dca-backtest/internal/model"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS series (
	key        TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	id         TEXT NOT NULL,
	kind       TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS observations (
	key    TEXT NOT NULL REFERENCES series(key) ON DELETE CASCADE,
	period DATE NOT NULL,
	value  NUMERIC NOT NULL,
	PRIMARY KEY (key, period)
);`

// Postgres stores series in PostgreSQL with NUMERIC values.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies connectivity and creates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (*Entry, error) {
	e := &Entry{Key: key}
	var kind string
	err := p.pool.QueryRow(ctx,
		`SELECT source, id, kind, fetched_at FROM series WHERE key = $1`, key,
	).Scan(&e.Source, &e.ID, &kind, &e.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	e.Kind = model.Kind(kind)

	rows, err := p.pool.Query(ctx,
		`SELECT period, value FROM observations WHERE key = $1 ORDER BY period ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var period time.Time
		var value decimal.Decimal
		if err := rows.Scan(&period, &value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		e.Observations = append(e.Observations, model.Observation{
			Time:  period.UTC(),
			Value: value.InexactFloat64(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	return e, nil
}

func (p *Postgres) Put(ctx context.Context, e *Entry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO series(key, source, id, kind, fetched_at) VALUES($1,$2,$3,$4,$5)
		 ON CONFLICT (key) DO UPDATE SET source=EXCLUDED.source, id=EXCLUDED.id,
		 kind=EXCLUDED.kind, fetched_at=EXCLUDED.fetched_at`,
		e.Key, e.Source, e.ID, string(e.Kind), e.FetchedAt,
	); err != nil {
		return fmt.Errorf("upsert series: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM observations WHERE key = $1`, e.Key); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}

	batch := &pgx.Batch{}
	for _, o := range e.Observations {
		batch.Queue(`INSERT INTO observations(key, period, value) VALUES($1,$2,$3)`,
			e.Key, model.MonthStart(o.Time), decimal.NewFromFloat(o.Value))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
