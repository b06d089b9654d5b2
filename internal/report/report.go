package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/compare"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	labelWidth = 25
	colWidth   = 20
)

// Money formats v as a whole currency amount with thousands separators, e.g. "$12,345".
func Money(currency string, v float64) string {
	return currency + humanize.Comma(int64(math.Round(v)))
}

type row struct {
	name string
	fmt  func(s analysis.Summary) string
}

func rows(currency string) []row {
	return []row{
		{"Period", func(s analysis.Summary) string { return s.StartDate + " to " + s.EndDate }},
		{"Total Invested", func(s analysis.Summary) string { return Money(currency, s.TotalInvested) }},
		{"Final Value", func(s analysis.Summary) string { return Money(currency, s.FinalValue) }},
		{"Total Return", func(s analysis.Summary) string { return Money(currency, s.TotalReturn) }},
		{"Total Return %", func(s analysis.Summary) string { return fmt.Sprintf("%.2f%%", s.TotalReturnPct) }},
		{"CAGR (approx)", func(s analysis.Summary) string { return fmt.Sprintf("%.2f%%", s.CAGRPct) }},
		{"Max Drawdown", func(s analysis.Summary) string { return fmt.Sprintf("%.2f%%", s.MaxDrawdownPct) }},
		{"Sharpe Ratio", func(s analysis.Summary) string { return fmt.Sprintf("%.2f", s.SharpeRatio) }},
	}
}

// WriteTable prints a side-by-side comparison with one column per summary.
func WriteTable(w io.Writer, currency string, summaries []analysis.Summary) error {
	var b strings.Builder
	header := fmt.Sprintf("%-*s", labelWidth, "Metric")
	for _, s := range summaries {
		header += fmt.Sprintf("%*s", colWidth, s.Strategy)
	}
	sep := strings.Repeat("-", len(header))

	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", sep, header, sep)
	for _, r := range rows(currency) {
		fmt.Fprintf(&b, "%-*s", labelWidth, r.name)
		for _, s := range summaries {
			fmt.Fprintf(&b, "%*s", colWidth, r.fmt(s))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s\n\n", sep)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteRollingStats prints the per-strategy distribution of aligned rolling windows.
func WriteRollingStats(w io.Writer, currency string, rr *compare.RollingResult) error {
	var b strings.Builder
	if rr == nil {
		return nil
	}
	fmt.Fprintf(&b, "\n  Common rolling windows: %d\n", len(rr.Aligned.Common))
	if len(rr.Aligned.Common) > 0 {
		fmt.Fprintf(&b, "\n=== Rolling %s Window Statistics ===\n", Span(rr.Window))
		for _, st := range rr.Stats {
			if st.Windows == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n  %s:\n", st.Strategy)
			fmt.Fprintf(&b, "    Avg return:    %.1f%%\n", st.MeanReturnPct)
			fmt.Fprintf(&b, "    Best return:   %.1f%% (started %s)\n", st.MaxReturnPct, st.MaxStart)
			fmt.Fprintf(&b, "    Worst return:  %.1f%% (started %s)\n", st.MinReturnPct, st.MinStart)
			fmt.Fprintf(&b, "    Avg final val: %s\n", Money(currency, st.MeanFinalValue))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSkips(b *strings.Builder, skips []compare.Skip) {
	for _, s := range skips {
		if s.Months > 0 {
			fmt.Fprintf(b, "  Skipping %s: %s (%d months)\n", s.Label, s.Reason, s.Months)
		} else {
			fmt.Fprintf(b, "  Skipping %s: %s\n", s.Label, s.Reason)
		}
	}
}

// WriteResult prints everything a comparison run produced, in run order.
func WriteResult(w io.Writer, currency string, res *compare.Result) error {
	var b strings.Builder
	for _, s := range res.Series {
		if s.Len() == 0 {
			continue
		}
		first, last := s.Observations[0].Time, s.Observations[len(s.Observations)-1].Time
		fmt.Fprintf(&b, "  %-*s %s to %s (%d months)\n", labelWidth, s.Label,
			first.Format("2006-01"), last.Format("2006-01"), s.Len())
	}
	writeSkips(&b, res.Unavailable)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if res.Latest != nil {
		b.Reset()
		fmt.Fprintf(&b, "\n=== Most Recent %s Window ===\n", Span(res.Latest.Months))
		writeSkips(&b, res.SkippedLatest)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := WriteTable(w, currency, res.Latest.Summaries); err != nil {
			return err
		}
	}

	if res.AllAssets != nil {
		header := fmt.Sprintf("\n=== All Assets Comparison (%.1f Years / %d Months) ===\n",
			float64(res.AllAssets.Months)/12, res.AllAssets.Months)
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		if err := WriteTable(w, currency, res.AllAssets.Summaries); err != nil {
			return err
		}
	}

	if res.Rolling != nil {
		b.Reset()
		for _, l := range res.Rolling.Aligned.Labels {
			fmt.Fprintf(&b, "  %-*s %d windows\n", labelWidth, l, res.Rolling.Counts[l])
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := WriteRollingStats(w, currency, res.Rolling); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON encodes res with indentation.
func WriteJSON(w io.Writer, res *compare.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// ExportPaths writes one CSV per path of wr into dir, named <prefix><slug>.csv.
func ExportPaths(dir, prefix string, wr *compare.WindowResult) ([]string, error) {
	if wr == nil {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	var out []string
	for _, l := range wr.Labels {
		p, ok := wr.Paths[l]
		if !ok {
			continue
		}
		path := filepath.Join(dir, prefix+Slug(l)+".csv")
		if err := backtest.WritePathCSV(path, p); err != nil {
			return out, fmt.Errorf("export %s: %w", l, err)
		}
		out = append(out, path)
	}
	return out, nil
}

// Slug turns a strategy label into a file-name friendly token.
func Slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == '%':
			b.WriteString("pct")
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('_')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Span names a window length, e.g. "10-Year" or "18-Month".
func Span(months int) string {
	if months%12 == 0 {
		return fmt.Sprintf("%d-Year", months/12)
	}
	return fmt.Sprintf("%d-Month", months)
}

// WriteSummariesCSV writes one row per summary, e.g. every rolling window of a strategy.
func WriteSummariesCSV(path string, summaries []analysis.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summaries file: %w", err)
	}
	defer f.Close()
	return WriteSummaries(f, summaries)
}

// WriteSummaries writes summaries as CSV to any writer.
func WriteSummaries(w io.Writer, summaries []analysis.Summary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"strategy",
		"start_date",
		"end_date",
		"months",
		"total_invested",
		"final_value",
		"total_return",
		"total_return_pct",
		"cagr_pct",
		"max_drawdown_pct",
		"sharpe_ratio",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range summaries {
		rec := []string{
			s.Strategy,
			s.StartDate,
			s.EndDate,
			strconv.Itoa(s.Months),
			decimal.NewFromFloat(s.TotalInvested).StringFixed(2),
			decimal.NewFromFloat(s.FinalValue).StringFixed(2),
			decimal.NewFromFloat(s.TotalReturn).StringFixed(2),
			strconv.FormatFloat(s.TotalReturnPct, 'f', 2, 64),
			strconv.FormatFloat(s.CAGRPct, 'f', 2, 64),
			strconv.FormatFloat(s.MaxDrawdownPct, 'f', 2, 64),
			strconv.FormatFloat(s.SharpeRatio, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
