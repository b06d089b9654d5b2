package analysis_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
)

func summary(label, startDate string, pct, final float64) analysis.Summary {
	return analysis.Summary{Strategy: label, StartDate: startDate, TotalReturnPct: pct, FinalValue: final}
}

func startDates(ss []analysis.Summary) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.StartDate)
	}
	return out
}

var _ = Describe("Summary", func() {
	It("should label the path period and round metrics", func() {
		s := analysis.Summarize(pathOf(100, 200, 400), "Equities (SPY)", 0.03)

		Expect(s.Strategy).To(Equal("Equities (SPY)"))
		Expect(s.StartDate).To(Equal("2010-01"))
		Expect(s.EndDate).To(Equal("2010-03"))
		Expect(s.Months).To(Equal(3))
		Expect(s.TotalInvested).To(Equal(300.0))
		Expect(s.FinalValue).To(Equal(400.0))
		Expect(s.TotalReturn).To(Equal(100.0))
		Expect(s.TotalReturnPct).To(Equal(33.33))
		Expect(s.MaxDrawdownPct).To(BeZero())
	})

	It("should keep only the label for an empty path", func() {
		s := analysis.Summarize(&backtest.Path{}, "x", 0.03)
		Expect(s).To(Equal(analysis.Summary{Strategy: "x"}))
	})

	It("should summarize every path in order", func() {
		out := analysis.SummarizeAll([]*backtest.Path{pathOf(100), pathOf(100, 300)}, "x", 0)
		Expect(out).To(HaveLen(2))
		Expect(out[0].Months).To(Equal(1))
		Expect(out[1].TotalReturnPct).To(Equal(50.0))
	})
})

var _ = Describe("Align", func() {
	Context("with overlapping rolling sets", func() {
		var set analysis.AlignedSet

		BeforeEach(func() {
			set = analysis.Align(map[string][]analysis.Summary{
				"A": {
					summary("A", "2000-01", 1, 1), summary("A", "2000-02", 2, 2),
					summary("A", "2000-03", 3, 3), summary("A", "2000-04", 4, 4),
				},
				"B": {
					summary("B", "2000-02", 1, 1), summary("B", "2000-03", 2, 2),
					summary("B", "2000-04", 3, 3), summary("B", "2000-05", 4, 4),
				},
				"C": {
					summary("C", "2000-03", 1, 1), summary("C", "2000-04", 2, 2),
				},
			}, "B", "A")
		})

		It("should keep only the common start months", func() {
			Expect(set.Common).To(Equal([]string{"2000-03", "2000-04"}))
			for _, label := range []string{"A", "B", "C"} {
				Expect(startDates(set.Sets[label])).To(Equal(set.Common))
			}
		})

		It("should preserve each set's order and values", func() {
			Expect(set.Sets["A"][0].TotalReturnPct).To(Equal(3.0))
			Expect(set.Sets["B"][1].TotalReturnPct).To(Equal(3.0))
		})

		It("should order labels by preference then name", func() {
			Expect(set.Labels).To(Equal([]string{"B", "A", "C"}))
		})
	})

	Context("when a strategy has no windows", func() {
		It("should produce an empty comparison", func() {
			set := analysis.Align(map[string][]analysis.Summary{
				"A": {summary("A", "2000-01", 1, 1)},
				"B": {},
			})
			Expect(set.Common).To(BeEmpty())
			Expect(set.Sets["A"]).To(BeEmpty())
			Expect(set.Labels).To(Equal([]string{"A", "B"}))
		})
	})
})

var _ = Describe("Aggregate", func() {
	It("should compute the distribution of aligned windows", func() {
		set := analysis.Align(map[string][]analysis.Summary{
			"A": {
				summary("A", "2000-01", 10, 100),
				summary("A", "2000-02", 30, 200),
				summary("A", "2000-03", -5, 300),
				summary("A", "2000-04", 30, 400),
			},
		})
		stats := analysis.Aggregate(set)
		Expect(stats).To(HaveLen(1))

		st := stats[0]
		Expect(st.Windows).To(Equal(4))
		Expect(st.MeanReturnPct).Should(BeNumerically("~", 16.25, 1e-9))
		Expect(st.MaxReturnPct).To(Equal(30.0))
		Expect(st.MaxStart).To(Equal("2000-02"))
		Expect(st.MinReturnPct).To(Equal(-5.0))
		Expect(st.MinStart).To(Equal("2000-03"))
		Expect(st.MeanFinalValue).Should(BeNumerically("~", 250, 1e-9))
		Expect(st.MedianFinalValue).Should(BeNumerically("~", 250, 1e-9))
		Expect(st.P05FinalValue).Should(BeNumerically("~", 115, 1e-9))
		Expect(st.P95FinalValue).Should(BeNumerically("~", 385, 1e-9))
	})

	It("should report empty strategies with zero windows", func() {
		stats := analysis.Aggregate(analysis.Align(map[string][]analysis.Summary{"A": nil}))
		Expect(stats).To(Equal([]analysis.RollingStats{{Strategy: "A"}}))
	})

	It("should rank by mean return with empty strategies last", func() {
		ranked := analysis.RankByMeanReturn([]analysis.RollingStats{
			{Strategy: "empty"},
			{Strategy: "low", Windows: 3, MeanReturnPct: -2},
			{Strategy: "high", Windows: 3, MeanReturnPct: 40},
		})
		Expect([]string{ranked[0].Strategy, ranked[1].Strategy, ranked[2].Strategy}).To(Equal([]string{"high", "low", "empty"}))
	})
})
