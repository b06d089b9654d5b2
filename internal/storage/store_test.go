package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dca-backtest/internal/model"
)

func sampleEntry(key string, values ...float64) *Entry {
	e := &Entry{
		Key:       key,
		Source:    "yahoo",
		ID:        "SPY",
		Kind:      model.KindPrice,
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, v := range values {
		e.Observations = append(e.Observations, model.Observation{
			Time:  time.Date(2020, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Value: v,
		})
	}
	return e
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, sampleEntry("k1", 10.5, 11.25, 9.75)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Source != "yahoo" || got.ID != "SPY" || got.Kind != model.KindPrice {
		t.Errorf("Get() header = %+v", got)
	}
	if !got.FetchedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("FetchedAt = %s", got.FetchedAt)
	}
	if len(got.Observations) != 3 {
		t.Fatalf("Get() = %d observations, want 3", len(got.Observations))
	}
	if got.Observations[1].Value != 11.25 || !got.Observations[1].Time.Equal(time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("observation[1] = %+v", got.Observations[1])
	}

	// overwrite replaces the whole series
	if err := s.Put(ctx, sampleEntry("k1", 1)); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	got, err = s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() after overwrite error = %v", err)
	}
	if len(got.Observations) != 1 || got.Observations[0].Value != 1 {
		t.Errorf("after overwrite = %+v", got.Observations)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	exerciseStore(t, s)

	e := sampleEntry("k2", 5)
	if err := s.Put(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	e.Observations[0].Value = 99
	got, _ := s.Get(context.Background(), "k2")
	if got.Observations[0].Value != 5 {
		t.Errorf("memory store shares observation slices with callers")
	}
}

func TestSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "series.db")
	s, err := OpenSQLite(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLite_Reopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "series.db")
	ctx := context.Background()
	s, err := OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Put(ctx, sampleEntry("k", 1, 2)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "k")
	if err != nil || len(got.Observations) != 2 {
		t.Fatalf("Get() after reopen = %+v, %v", got, err)
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("DCA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DCA_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{"", false},
		{"memory", false},
		{"sqlite", true}, // empty dsn
		{"redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, err := Open(context.Background(), tt.driver, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
