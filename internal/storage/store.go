package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dca-backtest/internal/model"
)

var ErrNotFound = errors.New("series not found in store")

// Entry is one cached series.
type Entry struct {
	Key          string
	Source       string // e.g. "yahoo", "bcb"
	ID           string // ticker or series code
	Kind         model.Kind
	FetchedAt    time.Time
	Observations []model.Observation
}

// Store persists series across runs. Get returns ErrNotFound for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Close() error
}

// Open returns the store for a cache driver: "memory", "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		p, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

func periodKey(t time.Time) string {
	return model.MonthStart(t).Format("2006-01-02")
}
