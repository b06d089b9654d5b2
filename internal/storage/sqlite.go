package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dca-backtest/internal/model"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS series (
	key        TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	id         TEXT NOT NULL,
	kind       TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS observations (
	key    TEXT NOT NULL,
	period TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (key, period)
);`

// SQLite stores series in a single database file.
type SQLite struct{ db *sql.DB }

func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("sqlite dsn is required")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (*Entry, error) {
	e := &Entry{Key: key}
	var kind string
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		`SELECT source, id, kind, fetched_at FROM series WHERE key = ?`, key,
	).Scan(&e.Source, &e.ID, &kind, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	e.Kind = model.Kind(kind)
	e.FetchedAt = time.Unix(fetched, 0).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT period, value FROM observations WHERE key = ? ORDER BY period ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var period string
		var value float64
		if err := rows.Scan(&period, &value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		t, err := time.Parse("2006-01-02", period)
		if err != nil {
			return nil, fmt.Errorf("parse period %q: %w", period, err)
		}
		e.Observations = append(e.Observations, model.Observation{Time: t, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	return e, nil
}

func (s *SQLite) Put(ctx context.Context, e *Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO series(key, source, id, kind, fetched_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(key) DO UPDATE SET source=excluded.source, id=excluded.id,
		 kind=excluded.kind, fetched_at=excluded.fetched_at`,
		e.Key, e.Source, e.ID, string(e.Kind), e.FetchedAt.Unix(),
	); err != nil {
		return fmt.Errorf("upsert series: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE key = ?`, e.Key); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO observations(key, period, value) VALUES(?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, o := range e.Observations {
		if _, err := stmt.ExecContext(ctx, e.Key, periodKey(o.Time), o.Value); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }
