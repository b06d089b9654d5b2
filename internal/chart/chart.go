package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"

	"github.com/vicanso/go-charts/v2"
)

var ErrNoData = errors.New("nothing to chart")

// Growth plots portfolio value per month for every path, with the amount
// invested as a reference line. Paths of different lengths are cut to the
// months of the shortest one, counted from the end.
func Growth(title string, labels []string, paths map[string]*backtest.Path) ([]byte, error) {
	var drawn []string
	n := math.MaxInt
	for _, l := range labels {
		if p := paths[l]; p.Len() > 0 {
			drawn = append(drawn, l)
			n = min(n, p.Len())
		}
	}
	if len(drawn) == 0 {
		return nil, ErrNoData
	}

	ref := paths[drawn[0]]
	x := make([]string, 0, n)
	for _, r := range tail(ref.Records, n) {
		x = append(x, model.MonthLabel(r.Period))
	}
	values := [][]float64{tail(ref.Invested(), n)}
	names := []string{"Total Invested"}
	for _, l := range drawn {
		values = append(values, tail(paths[l].Values(), n))
		names = append(names, l)
	}

	yMin := 0.0
	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: x, BoundaryGap: charts.FalseFlag(), SplitNumber: split(len(x))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionBottom}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1400),
		charts.HeightOptionFunc(700),
	)
	if err != nil {
		return nil, fmt.Errorf("render growth chart: %w", err)
	}
	return painter.Bytes()
}

// RollingReturns plots total return % by window start month for every aligned strategy.
func RollingReturns(title string, set analysis.AlignedSet) ([]byte, error) {
	if len(set.Common) == 0 {
		return nil, ErrNoData
	}
	values := make([][]float64, 0, len(set.Labels))
	names := make([]string, 0, len(set.Labels))
	yMin, yMax := 0.0, 0.0
	for _, l := range set.Labels {
		summaries := set.Sets[l]
		if len(summaries) == 0 {
			continue
		}
		row := make([]float64, len(summaries))
		for i, s := range summaries {
			row[i] = s.TotalReturnPct
			yMin = math.Min(yMin, s.TotalReturnPct)
			yMax = math.Max(yMax, s.TotalReturnPct)
		}
		values = append(values, row)
		names = append(names, l)
	}
	pad := (yMax - yMin) * 0.05
	yMin -= pad
	yMax += pad

	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: set.Common, BoundaryGap: charts.FalseFlag(), SplitNumber: split(len(set.Common))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionBottom}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1400),
		charts.HeightOptionFunc(700),
	)
	if err != nil {
		return nil, fmt.Errorf("render rolling returns chart: %w", err)
	}
	return painter.Bytes()
}

// FinalValues draws the P05, median and P95 of final portfolio values per strategy.
func FinalValues(title string, stats []analysis.RollingStats) ([]byte, error) {
	x := make([]string, 0, len(stats))
	p05 := make([]float64, 0, len(stats))
	med := make([]float64, 0, len(stats))
	p95 := make([]float64, 0, len(stats))
	for _, st := range stats {
		if st.Windows == 0 {
			continue
		}
		x = append(x, st.Strategy)
		p05 = append(p05, st.P05FinalValue)
		med = append(med, st.MedianFinalValue)
		p95 = append(p95, st.P95FinalValue)
	}
	if len(x) == 0 {
		return nil, ErrNoData
	}

	painter, err := charts.BarRender([][]float64{p05, med, p95},
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(x),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"P05", "Median", "P95"}, Top: charts.PositionBottom}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("render final values chart: %w", err)
	}
	return painter.Bytes()
}

// Save writes a rendered chart, creating dir.
func Save(dir, name string, png []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return path, nil
}

func split(points int) int {
	switch {
	case points <= 12:
		return points
	case points <= 60:
		return 10
	default:
		return 12
	}
}

func tail[T any](xs []T, n int) []T {
	return xs[len(xs)-n:]
}
