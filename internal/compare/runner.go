package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner loads every instrument and runs the latest-window, all-assets and
// rolling comparisons. Instruments without data, or too short for a window,
// are skipped rather than failing the run.
type Runner struct {
	Prices data.PriceSource
	Rates  data.RateSource
	Opts   Options
	Logger *zap.Logger
}

func New(prices data.PriceSource, rates data.RateSource, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Prices: prices, Rates: rates, Opts: opts, Logger: logger}
}

func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.Opts.Params.Validate(); err != nil {
		return nil, err
	}
	res := &Result{}

	series, unavailable, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	res.Series = series
	res.Unavailable = unavailable
	for _, s := range series {
		first, last, _ := model.Span(s.Observations)
		r.logger().Info("loaded series",
			zap.String("label", s.Label),
			zap.String("from", model.MonthLabel(first)),
			zap.String("to", model.MonthLabel(last)),
			zap.Int("months", s.Len()))
	}

	window := r.Opts.Params.WindowMonths
	res.Latest, res.SkippedLatest, err = r.latest(series, window)
	if err != nil {
		return nil, err
	}

	if len(res.SkippedLatest) > 0 {
		res.AllAssets, err = r.allAssets(series)
		if err != nil {
			return nil, err
		}
	}

	res.Rolling, err = r.Rolling(ctx, series, window)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Load fetches every strategy and the benchmark. Instruments whose source
// reports no data are returned as unavailable; any other error aborts.
func (r *Runner) Load(ctx context.Context) ([]Series, []Skip, error) {
	n := len(r.Opts.Strategies)
	slots := make([]*Series, n)
	skips := make([]*Skip, n)

	g, gctx := errgroup.WithContext(ctx)
	if r.Opts.Workers > 0 {
		g.SetLimit(r.Opts.Workers)
	}
	for i, s := range r.Opts.Strategies {
		g.Go(func() error {
			prices, err := r.loadStrategy(gctx, s)
			if errors.Is(err, model.ErrDataUnavailable) {
				r.logger().Warn("skipping strategy: data unavailable",
					zap.String("label", s.Label), zap.String("ticker", s.Ticker), zap.Error(err))
				skips[i] = &Skip{Label: s.Label, Reason: err.Error()}
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", s.Label, err)
			}
			slots[i] = &Series{Label: s.Label, Kind: model.KindPrice, Observations: prices}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	series := make([]Series, 0, n+1)
	unavailable := []Skip{}
	for i := range slots {
		if slots[i] != nil {
			series = append(series, *slots[i])
		}
		if skips[i] != nil {
			unavailable = append(unavailable, *skips[i])
		}
	}

	if b := r.Opts.Benchmark; b != nil {
		factors, err := r.loadBenchmark(ctx, b)
		switch {
		case errors.Is(err, model.ErrDataUnavailable):
			r.logger().Warn("skipping benchmark: data unavailable", zap.String("label", b.Label), zap.Error(err))
			unavailable = append(unavailable, Skip{Label: b.Label, Reason: err.Error()})
		case err != nil:
			return nil, nil, fmt.Errorf("%s: %w", b.Label, err)
		default:
			series = append(series, Series{Label: b.Label, Kind: model.KindRate, Observations: factors})
		}
	}
	return series, unavailable, nil
}

func (r *Runner) loadStrategy(ctx context.Context, s Strategy) (model.PriceSeries, error) {
	if r.Prices == nil {
		return nil, fmt.Errorf("no price source: %w", model.ErrDataUnavailable)
	}
	prices, err := r.Prices.MonthlyPrices(ctx, s.Ticker, s.Start)
	if err != nil {
		return nil, err
	}
	if s.FXTicker == "" {
		return prices, nil
	}
	fx, err := r.Prices.MonthlyPrices(ctx, s.FXTicker, s.Start)
	if err != nil {
		return nil, fmt.Errorf("fx %s: %w", s.FXTicker, err)
	}
	converted := model.ConvertPrices(prices, fx)
	if len(converted) == 0 {
		return nil, fmt.Errorf("%s and %s share no months: %w", s.Ticker, s.FXTicker, model.ErrDataUnavailable)
	}
	return converted, nil
}

func (r *Runner) loadBenchmark(ctx context.Context, b *Benchmark) (model.RateSeries, error) {
	if r.Rates == nil {
		return nil, fmt.Errorf("no rate source: %w", model.ErrDataUnavailable)
	}
	return r.Rates.MonthlyFactors(ctx, b.FromYear)
}

// latest simulates each instrument over its last window months.
func (r *Runner) latest(series []Series, window int) (*WindowResult, []Skip, error) {
	out := newWindowResult(window)
	skipped := []Skip{}
	for _, s := range series {
		p, err := r.simulateTail(s, window)
		if errors.Is(err, model.ErrInsufficientData) {
			r.logger().Warn("skipping for latest window",
				zap.String("label", s.Label), zap.Int("months", s.Len()), zap.Int("need", window))
			skipped = append(skipped, Skip{
				Label:  s.Label,
				Reason: fmt.Sprintf("only %d months (need %d)", s.Len(), window),
				Months: s.Len(),
			})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		out.add(s.Label, p, r.Opts.Params.RiskFreeAnnual)
	}
	return out, skipped, nil
}

// allAssets reruns the latest window with a length every price instrument can
// fill: one month less than the shortest price series.
func (r *Runner) allAssets(series []Series) (*WindowResult, error) {
	shortest := math.MaxInt
	for _, s := range series {
		if s.Kind == model.KindPrice && s.Len() < shortest {
			shortest = s.Len()
		}
	}
	short := shortest - 1
	if shortest == math.MaxInt || short < 1 {
		r.logger().Info("no all-assets window: price history too short")
		return nil, nil
	}

	out := newWindowResult(short)
	for _, s := range series {
		p, err := r.simulateTail(s, short)
		if errors.Is(err, model.ErrInsufficientData) {
			r.logger().Warn("skipping for all-assets window",
				zap.String("label", s.Label), zap.Int("months", s.Len()), zap.Int("need", short))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		out.add(s.Label, p, r.Opts.Params.RiskFreeAnnual)
	}
	return out, nil
}

func (r *Runner) simulateTail(s Series, months int) (*backtest.Path, error) {
	obs := s.Observations
	if len(obs) > months {
		obs = obs[len(obs)-months:]
	}
	return backtest.SimulatorFor(s.Kind)(obs, r.Opts.Params.Contribution, months)
}

// Rolling runs every window of every instrument long enough for one, then
// aligns them on common start months.
func (r *Runner) Rolling(ctx context.Context, series []Series, window int) (*RollingResult, error) {
	eligible := make([]Series, 0, len(series))
	total := 0
	for _, s := range series {
		n := backtest.WindowCount(s.Len(), window)
		if n == 0 {
			r.logger().Info("no rolling windows", zap.String("label", s.Label), zap.Int("months", s.Len()))
			continue
		}
		eligible = append(eligible, s)
		total += n
	}
	if r.Opts.OnRollingStart != nil {
		r.Opts.OnRollingStart(total)
	}

	engine := backtest.New(r.Opts.Workers)
	engine.Progress = r.Opts.Progress

	var mu sync.Mutex
	sets := make(map[string][]analysis.Summary, len(eligible))
	counts := make(map[string]int, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	if r.Opts.Workers > 0 {
		g.SetLimit(r.Opts.Workers)
	}
	for _, s := range eligible {
		g.Go(func() error {
			paths, err := engine.Rolling(gctx, s.Observations, r.Opts.Params.Contribution, window, backtest.SimulatorFor(s.Kind))
			if err != nil {
				return fmt.Errorf("%s: %w", s.Label, err)
			}
			summaries := analysis.SummarizeAll(paths, s.Label, r.Opts.Params.RiskFreeAnnual)

			mu.Lock()
			defer mu.Unlock()
			sets[s.Label] = summaries
			counts[s.Label] = len(summaries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aligned := analysis.Align(sets, r.Opts.Labels()...)
	r.logger().Info("rolling windows aligned",
		zap.Int("window", window), zap.Int("common_windows", len(aligned.Common)))
	return &RollingResult{
		Window:  window,
		Counts:  counts,
		Aligned: aligned,
		Stats:   analysis.Aggregate(aligned),
	}, nil
}

func newWindowResult(months int) *WindowResult {
	return &WindowResult{
		Months:    months,
		Labels:    []string{},
		Summaries: []analysis.Summary{},
		Paths:     map[string]*backtest.Path{},
	}
}

func (w *WindowResult) add(label string, p *backtest.Path, riskFree float64) {
	w.Labels = append(w.Labels, label)
	w.Summaries = append(w.Summaries, analysis.Summarize(p, label, riskFree))
	w.Paths[label] = p
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
