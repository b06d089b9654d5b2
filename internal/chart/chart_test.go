package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
)

var pngMagic = []byte("\x89PNG")

func flatPath(months int, price float64) *backtest.Path {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make(model.PriceSeries, months)
	for i := range prices {
		prices[i] = model.Observation{Time: start.AddDate(0, i, 0), Value: price + float64(i)}
	}
	p, err := backtest.SimulateDCA(prices, 100, months)
	if err != nil {
		panic(err)
	}
	return p
}

func TestGrowth(t *testing.T) {
	paths := map[string]*backtest.Path{
		"A": flatPath(24, 10),
		"B": flatPath(18, 50),
	}
	png, err := Growth("Growth", []string{"A", "B", "missing"}, paths)
	if err != nil {
		t.Fatalf("Growth: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG output")
	}

	if _, err := Growth("Growth", []string{"missing"}, paths); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRollingReturns(t *testing.T) {
	set := analysis.Align(map[string][]analysis.Summary{
		"A": {{Strategy: "A", StartDate: "2015-01", TotalReturnPct: 10}, {Strategy: "A", StartDate: "2015-02", TotalReturnPct: -5}},
		"B": {{Strategy: "B", StartDate: "2015-01", TotalReturnPct: 3}, {Strategy: "B", StartDate: "2015-02", TotalReturnPct: 4}},
	})
	png, err := RollingReturns("Rolling", set)
	if err != nil {
		t.Fatalf("RollingReturns: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG output")
	}

	if _, err := RollingReturns("Rolling", analysis.AlignedSet{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFinalValues(t *testing.T) {
	stats := []analysis.RollingStats{
		{Strategy: "A", Windows: 3, P05FinalValue: 90, MedianFinalValue: 120, P95FinalValue: 150},
		{Strategy: "B", Windows: 3, P05FinalValue: 100, MedianFinalValue: 105, P95FinalValue: 110},
	}
	png, err := FinalValues("Final", stats)
	if err != nil {
		t.Fatalf("FinalValues: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG output")
	}

	if _, err := FinalValues("Final", []analysis.RollingStats{{Strategy: "A"}}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path, err := Save(dir, "chart.png", pngMagic)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "chart.png") {
		t.Fatalf("unexpected path %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, pngMagic) {
		t.Fatalf("unexpected contents %q", got)
	}
}

func TestSplit(t *testing.T) {
	cases := map[int]int{1: 1, 12: 12, 13: 10, 60: 10, 61: 12}
	for points, want := range cases {
		if got := split(points); got != want {
			t.Errorf("split(%d) = %d, want %d", points, got, want)
		}
	}
}
