package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"dca-backtest/internal/model"

	"github.com/shopspring/decimal"
)

// WritePathCSV writes one simulation path to a CSV file.
func WritePathCSV(path string, p *Path) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create path file: %w", err)
	}
	defer f.Close()

	return WritePath(f, p)
}

// WritePath writes a path as CSV to any writer. Price and share columns are
// empty for rate-driven paths.
func WritePath(w io.Writer, p *Path) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"index",
		"period",
		"kind",
		"price",
		"shares_bought",
		"total_shares",
		"total_invested",
		"portfolio_value",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range p.Records {
		price, bought, total := "", "", ""
		if r.Holding != nil {
			price = fmtFloat(r.Holding.Price)
			bought = fmtFloat(r.Holding.SharesBought)
			total = fmtFloat(r.Holding.TotalShares)
		}
		row := []string{
			strconv.Itoa(r.Index),
			model.MonthLabel(r.Period),
			string(p.Kind),
			price,
			bought,
			total,
			fmtMoney(r.TotalInvested),
			fmtMoney(r.PortfolioValue),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func fmtFloat(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(6)
}

func fmtMoney(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}
