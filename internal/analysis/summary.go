package analysis

import (
	"math"
	"time"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"

	"github.com/shopspring/decimal"
)

// Summary holds the scalar metrics of one simulation path. Percentages and the
// Sharpe ratio are rounded to 2 decimals once, here.
type Summary struct {
	Strategy       string    `json:"strategy"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Start          time.Time `json:"-"`
	Months         int       `json:"months"`
	TotalInvested  float64   `json:"total_invested"`
	FinalValue     float64   `json:"final_value"`
	TotalReturn    float64   `json:"total_return"`
	TotalReturnPct float64   `json:"total_return_pct"`
	CAGRPct        float64   `json:"cagr_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
}

func Summarize(p *backtest.Path, label string, riskFreeAnnual float64) Summary {
	s := Summary{Strategy: label}
	if p.Len() == 0 {
		return s
	}
	f := p.Final()
	s.Start = p.Start()
	s.StartDate = model.MonthLabel(p.Start())
	s.EndDate = model.MonthLabel(p.End())
	s.Months = p.Len()
	s.TotalInvested = f.TotalInvested
	s.FinalValue = f.PortfolioValue
	s.TotalReturn = round2(TotalReturn(p))
	s.TotalReturnPct = round2(TotalReturnPct(p))
	s.CAGRPct = round2(CAGR(p))
	s.MaxDrawdownPct = round2(MaxDrawdown(p))
	s.SharpeRatio = round2(SharpeRatio(p, riskFreeAnnual))
	return s
}

// SummarizeAll summarizes rolling paths, keeping their order.
func SummarizeAll(paths []*backtest.Path, label string, riskFreeAnnual float64) []Summary {
	out := make([]Summary, 0, len(paths))
	for _, p := range paths {
		out = append(out, Summarize(p, label, riskFreeAnnual))
	}
	return out
}

// round2 rounds half away from zero.
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
