package compare

import (
	"time"

	"dca-backtest/internal/config"
	"dca-backtest/internal/model"
)

// Strategy is one price-driven instrument of a comparison.
type Strategy struct {
	Label    string
	Ticker   string
	FXTicker string // optional; prices are multiplied by this FX series
	Start    time.Time
}

// Benchmark is the compounding-rate reference.
type Benchmark struct {
	Label    string
	FromYear int
}

type Options struct {
	Params     model.Params
	Strategies []Strategy
	Benchmark  *Benchmark
	// Workers bounds concurrent fetches, strategies and windows; <= 0 means unbounded.
	Workers int

	// OnRollingStart receives the total number of rolling windows before they run.
	OnRollingStart func(total int)
	// Progress is called once per finished rolling window, from worker goroutines.
	Progress func()
}

// OptionsFromConfig maps a validated config onto runner options.
func OptionsFromConfig(c *config.Config) (Options, error) {
	opts := Options{Params: c.Params(), Workers: c.Workers}
	for _, s := range c.Strategies {
		start, err := c.StrategyStart(s)
		if err != nil {
			return Options{}, err
		}
		opts.Strategies = append(opts.Strategies, Strategy{
			Label:    s.Label,
			Ticker:   s.Ticker,
			FXTicker: s.FXTicker,
			Start:    start,
		})
	}
	if b := c.Benchmark; b != nil {
		opts.Benchmark = &Benchmark{Label: b.Label, FromYear: b.FromYear}
	}
	return opts, nil
}

// Labels lists strategies then the benchmark, in presentation order.
func (o Options) Labels() []string {
	out := make([]string, 0, len(o.Strategies)+1)
	for _, s := range o.Strategies {
		out = append(out, s.Label)
	}
	if o.Benchmark != nil {
		out = append(out, o.Benchmark.Label)
	}
	return out
}
