package analysis

import (
	"math"

	"dca-backtest/internal/backtest"

	"gonum.org/v1/gonum/stat"
)

// TotalReturn is final portfolio value minus total invested.
func TotalReturn(p *backtest.Path) float64 {
	if p.Len() == 0 {
		return 0
	}
	f := p.Final()
	return f.PortfolioValue - f.TotalInvested
}

// TotalReturnPct is TotalReturn as a percentage of total invested.
// Zero invested yields 0.
func TotalReturnPct(p *backtest.Path) float64 {
	if p.Len() == 0 {
		return 0
	}
	invested := p.Final().TotalInvested
	if invested == 0 {
		return 0
	}
	return TotalReturn(p) / invested * 100
}

// CAGR approximates an annualized return for a contribution plan by assuming
// the average dollar was invested for half of the path:
//
//	((final/invested)^(1/(years/2)) - 1) * 100
//
// It is not an IRR.
func CAGR(p *backtest.Path) float64 {
	if p.Len() == 0 {
		return 0
	}
	f := p.Final()
	avgYears := float64(p.Len()) / 12 / 2
	if avgYears <= 0 || f.TotalInvested <= 0 {
		return 0
	}
	return (math.Pow(f.PortfolioValue/f.TotalInvested, 1/avgYears) - 1) * 100
}

// MaxDrawdown is the largest peak-to-trough decline of portfolio value, in
// percent of the peak. The peak starts at the first value, so a path that
// never falls has a drawdown of 0.
func MaxDrawdown(p *backtest.Path) float64 {
	return maxDrawdown(p.Values())
}

func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// MonthlyReturns returns one organic return per period after the first, with
// that period's contribution taken out of the value change.
func MonthlyReturns(p *backtest.Path) []float64 {
	return monthlyReturns(p.Values(), p.Invested())
}

func monthlyReturns(values, invested []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		contrib := invested[i] - invested[i-1]
		out = append(out, (values[i]-prev-contrib)/prev)
	}
	return out
}

// SharpeRatio annualizes the mean excess monthly return over its sample
// standard deviation.
func SharpeRatio(p *backtest.Path, riskFreeAnnual float64) float64 {
	return SharpeFromReturns(MonthlyReturns(p), riskFreeAnnual)
}

// SharpeFromReturns computes the annualized Sharpe ratio of monthly returns.
// Flat or single-point return series yield 0.
func SharpeFromReturns(rets []float64, riskFreeAnnual float64) float64 {
	if len(rets) < 2 || constant(rets) {
		return 0
	}
	rfMonthly := math.Pow(1+riskFreeAnnual, 1.0/12) - 1
	excess := make([]float64, len(rets))
	for i, r := range rets {
		excess[i] = r - rfMonthly
	}
	sd := stat.StdDev(excess, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return stat.Mean(excess, nil) / sd * math.Sqrt(12)
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
