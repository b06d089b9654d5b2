package backtest

import (
	"context"
	"fmt"

	"dca-backtest/internal/model"

	"golang.org/x/sync/errgroup"
)

// RunRolling simulates every window of the given length, one per start offset
// 0..len(series)-window, in increasing start order. A series shorter than the
// window yields no paths and no error.
func RunRolling(series []model.Observation, contribution float64, window int, sim Simulator) ([]*Path, error) {
	n, err := windowCount(len(series), contribution, window)
	if err != nil {
		return nil, err
	}
	paths := make([]*Path, 0, n)
	for start := 0; start < n; start++ {
		p, err := sim(series[start:start+window], contribution, window)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", start, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Engine runs rolling windows concurrently. Windows share no state, so the only
// coordination is writing each path into its own slot.
type Engine struct {
	// Workers bounds concurrent windows; <= 0 means one per window.
	Workers int
	// Progress, if set, is called once per finished window from worker goroutines.
	Progress func()
}

func New(workers int) *Engine { return &Engine{Workers: workers} }

// Rolling produces the same paths in the same order as RunRolling.
func (e *Engine) Rolling(ctx context.Context, series []model.Observation, contribution float64, window int, sim Simulator) ([]*Path, error) {
	n, err := windowCount(len(series), contribution, window)
	if err != nil {
		return nil, err
	}
	paths := make([]*Path, n)
	g, ctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for start := 0; start < n; start++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := sim(series[start:start+window], contribution, window)
			if err != nil {
				return fmt.Errorf("window %d: %w", start, err)
			}
			paths[start] = p
			if e.Progress != nil {
				e.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// WindowCount returns max(0, length-window+1).
func WindowCount(length, window int) int {
	if window <= 0 || length < window {
		return 0
	}
	return length - window + 1
}

func windowCount(length int, contribution float64, window int) (int, error) {
	if err := model.CheckMonths(window); err != nil {
		return 0, err
	}
	if err := model.CheckContribution(contribution); err != nil {
		return 0, err
	}
	return WindowCount(length, window), nil
}
