package analysis_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
)

var start = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

// pathOf builds a path with a 100/month contribution and the given values.
func pathOf(values ...float64) *backtest.Path {
	p := &backtest.Path{Kind: model.KindRate, Contribution: 100}
	for i, v := range values {
		p.Records = append(p.Records, backtest.Record{
			Index:          i,
			Period:         start.AddDate(0, i, 0),
			TotalInvested:  100 * float64(i+1),
			PortfolioValue: v,
		})
	}
	return p
}

func flatPrices(v float64, n int) model.PriceSeries {
	out := make(model.PriceSeries, n)
	for i := range out {
		out[i] = model.Observation{Time: start.AddDate(0, i, 0), Value: v}
	}
	return out
}

var _ = Describe("Metrics", func() {
	Describe("When given a constant-price DCA path", func() {
		var p *backtest.Path

		BeforeEach(func() {
			var err error
			p, err = backtest.SimulateDCA(flatPrices(10, 12), 1000, 12)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should have no return", func() {
			Expect(analysis.TotalReturn(p)).Should(BeNumerically("~", 0, 1e-9))
			Expect(analysis.TotalReturnPct(p)).Should(BeNumerically("~", 0, 1e-9))
			Expect(analysis.CAGR(p)).Should(BeNumerically("~", 0, 1e-9))
		})

		It("should have no drawdown", func() {
			Expect(analysis.MaxDrawdown(p)).Should(BeZero())
		})

		It("should have a zero sharpe ratio", func() {
			Expect(analysis.SharpeRatio(p, 0.03)).Should(BeZero())
		})
	})

	Describe("MaxDrawdown", func() {
		It("should take the deepest fall from a running peak", func() {
			Expect(analysis.MaxDrawdown(pathOf(100, 200, 150, 300, 240))).Should(BeNumerically("~", 25, 1e-9))
		})

		It("should be zero for non-decreasing values", func() {
			Expect(analysis.MaxDrawdown(pathOf(100, 100, 150, 150, 400))).Should(BeZero())
		})

		It("should never be negative", func() {
			Expect(analysis.MaxDrawdown(pathOf(500, 10, 20, 5, 900))).Should(BeNumerically(">=", 0))
		})

		It("should skip points while the peak is zero", func() {
			Expect(analysis.MaxDrawdown(pathOf(0, 0, 100, 50))).Should(BeNumerically("~", 50, 1e-9))
		})
	})

	Describe("MonthlyReturns", func() {
		It("should exclude the month's contribution", func() {
			rets := analysis.MonthlyReturns(pathOf(100, 210, 300))
			Expect(rets).To(HaveLen(2))
			Expect(rets[0]).Should(BeNumerically("~", 0.1, 1e-12))
			Expect(rets[1]).Should(BeNumerically("~", -10.0/210, 1e-12))
		})

		It("should return zero when the prior value is not positive", func() {
			rets := analysis.MonthlyReturns(pathOf(0, 100))
			Expect(rets).To(Equal([]float64{0}))
		})

		It("should be empty for a single-point path", func() {
			Expect(analysis.MonthlyReturns(pathOf(100))).To(BeEmpty())
		})
	})

	Describe("CAGR", func() {
		It("should treat money as invested for half the period", func() {
			values := make([]float64, 24)
			for i := range values {
				values[i] = 100 * float64(i+1)
			}
			// double the invested amount over two years: one average year at +100%
			values[23] = 4800
			Expect(analysis.CAGR(pathOf(values...))).Should(BeNumerically("~", 100, 1e-9))
		})

		It("should return zero when nothing was invested", func() {
			p := &backtest.Path{Records: []backtest.Record{{Period: start, PortfolioValue: 10}}}
			Expect(analysis.CAGR(p)).Should(BeZero())
			Expect(analysis.TotalReturnPct(p)).Should(BeZero())
		})

		It("should return zero for an empty path", func() {
			Expect(analysis.CAGR(&backtest.Path{})).Should(BeZero())
		})
	})

	Describe("SharpeFromReturns", func() {
		It("should be zero for identical returns", func() {
			rets := make([]float64, 12)
			for i := range rets {
				rets[i] = 0.01
			}
			Expect(analysis.SharpeFromReturns(rets, 0.03)).Should(BeZero())
		})

		It("should be zero for a single return", func() {
			Expect(analysis.SharpeFromReturns([]float64{0.05}, 0.03)).Should(BeZero())
		})

		It("should use the sample standard deviation", func() {
			// mean 0.02, sample stdev 0.01*sqrt(2)
			want := 0.02 / (0.01 * math.Sqrt2) * math.Sqrt(12)
			Expect(analysis.SharpeFromReturns([]float64{0.01, 0.03}, 0)).Should(BeNumerically("~", want, 1e-9))
		})

		It("should subtract the monthly risk-free rate", func() {
			rf := math.Pow(1.12, 1.0/12) - 1
			rets := []float64{0.01, 0.03, 0.02}
			mean := (0.01+0.03+0.02)/3 - rf
			want := mean / 0.01 * math.Sqrt(12)
			Expect(analysis.SharpeFromReturns(rets, 0.12)).Should(BeNumerically("~", want, 1e-9))
		})
	})
})
