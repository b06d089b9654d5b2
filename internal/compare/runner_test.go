package compare

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dca-backtest/internal/config"
	"dca-backtest/internal/model"
)

var base = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func flat(v float64, n int, offset int) []model.Observation {
	out := make([]model.Observation, n)
	for i := range out {
		out[i] = model.Observation{Time: base.AddDate(0, offset+i, 0), Value: v}
	}
	return out
}

type fakePrices map[string]model.PriceSeries

func (f fakePrices) MonthlyPrices(_ context.Context, ticker string, _ time.Time) (model.PriceSeries, error) {
	s, ok := f[ticker]
	if !ok {
		return nil, model.ErrDataUnavailable
	}
	return s, nil
}

type fakeRates struct {
	series model.RateSeries
	err    error
}

func (f fakeRates) MonthlyFactors(context.Context, int) (model.RateSeries, error) {
	return f.series, f.err
}

func testOptions(window int, labels ...string) Options {
	opts := Options{
		Params:  model.Params{Contribution: 100, WindowMonths: window, RiskFreeAnnual: 0.03},
		Workers: 2,
	}
	for _, l := range labels {
		opts.Strategies = append(opts.Strategies, Strategy{Label: l, Ticker: l, Start: base})
	}
	return opts
}

func TestRun(t *testing.T) {
	prices := fakePrices{
		// A covers 2000-01..2002-06, B starts a year later and is too short for 24 months
		"A": flat(10, 30, 0),
		"B": flat(20, 20, 10),
	}
	opts := testOptions(24, "A", "B", "C")
	opts.Benchmark = &Benchmark{Label: "CDI", FromYear: 2000}
	rates := fakeRates{series: model.RateSeries(flat(1.0, 30, 0))}

	var started, done atomic.Int64
	opts.OnRollingStart = func(total int) { started.Store(int64(total)) }
	opts.Progress = func() { done.Add(1) }

	res, err := New(prices, rates, opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Unavailable) != 1 || res.Unavailable[0].Label != "C" {
		t.Errorf("unavailable = %+v, want C", res.Unavailable)
	}
	if got := res.Latest.Labels; len(got) != 2 || got[0] != "A" || got[1] != "CDI" {
		t.Errorf("latest labels = %v, want [A CDI]", got)
	}
	if len(res.SkippedLatest) != 1 || res.SkippedLatest[0].Label != "B" || res.SkippedLatest[0].Months != 20 {
		t.Errorf("skipped = %+v, want B with 20 months", res.SkippedLatest)
	}
	for _, s := range res.Latest.Summaries {
		if s.TotalInvested != 2400 || s.TotalReturnPct != 0 {
			t.Errorf("latest %s = %+v, want flat 2400", s.Strategy, s)
		}
	}
	if res.Latest.Summaries[0].StartDate != "2000-07" {
		t.Errorf("latest window starts %s, want 2000-07", res.Latest.Summaries[0].StartDate)
	}

	if res.AllAssets == nil {
		t.Fatal("all-assets window missing")
	}
	if res.AllAssets.Months != 19 || len(res.AllAssets.Labels) != 3 {
		t.Errorf("all-assets = %d months %v, want 19 months over A, B, CDI", res.AllAssets.Months, res.AllAssets.Labels)
	}

	roll := res.Rolling
	if roll.Counts["A"] != 7 || roll.Counts["CDI"] != 7 {
		t.Errorf("rolling counts = %v, want 7 each", roll.Counts)
	}
	if _, ok := roll.Counts["B"]; ok {
		t.Errorf("B has no full window and must not be rolled")
	}
	if len(roll.Aligned.Common) != 7 || roll.Aligned.Common[0] != "2000-01" {
		t.Errorf("common starts = %v", roll.Aligned.Common)
	}
	if len(roll.Stats) != 2 || roll.Stats[0].Strategy != "A" || roll.Stats[1].Strategy != "CDI" {
		t.Errorf("stats order = %+v", roll.Stats)
	}
	if started.Load() != 14 || done.Load() != 14 {
		t.Errorf("progress = %d/%d, want 14/14", done.Load(), started.Load())
	}
}

func TestRun_NoSkipsMeansNoAllAssetsWindow(t *testing.T) {
	prices := fakePrices{"A": flat(10, 12, 0), "B": flat(10, 15, 0)}
	res, err := New(prices, nil, testOptions(12, "A", "B"), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.AllAssets != nil {
		t.Errorf("all-assets window built without skipped instruments")
	}
	// A has one window starting 2000-01, B has 4: only 2000-01 is common
	if got := res.Rolling.Aligned.Common; len(got) != 1 || got[0] != "2000-01" {
		t.Errorf("common = %v", got)
	}
}

func TestRun_FXConversion(t *testing.T) {
	prices := fakePrices{
		"BTC-USD": flat(10, 6, 0),
		"BRL=X":   flat(5, 4, 2),
	}
	opts := testOptions(2)
	opts.Strategies = []Strategy{{Label: "BTC (BRL)", Ticker: "BTC-USD", FXTicker: "BRL=X", Start: base}}

	series, _, err := New(prices, nil, opts, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(series) != 1 || series[0].Len() != 4 {
		t.Fatalf("series = %+v, want 4 common months", series)
	}
	if series[0].Observations[0].Value != 50 || !series[0].Observations[0].Time.Equal(base.AddDate(0, 2, 0)) {
		t.Errorf("first converted point = %+v", series[0].Observations[0])
	}
}

func TestRun_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("benchmark failure aborts", func(t *testing.T) {
		opts := testOptions(2, "A")
		opts.Benchmark = &Benchmark{Label: "CDI", FromYear: 2000}
		_, err := New(fakePrices{"A": flat(1, 3, 0)}, fakeRates{err: boom}, opts, nil).Run(context.Background())
		if !errors.Is(err, boom) {
			t.Fatalf("Run() error = %v, want boom", err)
		}
	})

	t.Run("unavailable benchmark is skipped", func(t *testing.T) {
		opts := testOptions(2, "A")
		opts.Benchmark = &Benchmark{Label: "CDI", FromYear: 2000}
		res, err := New(fakePrices{"A": flat(1, 3, 0)}, fakeRates{err: model.ErrDataUnavailable}, opts, nil).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(res.Unavailable) != 1 || res.Unavailable[0].Label != "CDI" {
			t.Errorf("unavailable = %+v", res.Unavailable)
		}
	})

	t.Run("invalid price aborts", func(t *testing.T) {
		bad := flat(1, 3, 0)
		bad[1].Value = 0
		_, err := New(fakePrices{"A": bad}, nil, testOptions(2, "A"), nil).Run(context.Background())
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("Run() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("invalid params", func(t *testing.T) {
		_, err := New(fakePrices{}, nil, testOptions(0, "A"), nil).Run(context.Background())
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("Run() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.Brazil())
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	labels := opts.Labels()
	if len(labels) != 6 || labels[5] != "100% CDI" {
		t.Errorf("labels = %v", labels)
	}
	btc := opts.Strategies[4]
	if btc.FXTicker != "BRL=X" || btc.Start.Year() != 2010 {
		t.Errorf("btc = %+v", btc)
	}
	if opts.Params.Contribution != 1000 || opts.Params.WindowMonths != 120 {
		t.Errorf("params = %+v", opts.Params)
	}
}
