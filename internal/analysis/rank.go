package analysis

import "sort"

// RankByMeanReturn returns a copy of stats sorted descending by mean return.
// Strategies without windows sink to the bottom.
func RankByMeanReturn(stats []RollingStats) []RollingStats {
	out := append([]RollingStats(nil), stats...)
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Windows == 0) != (out[j].Windows == 0) {
			return out[j].Windows == 0
		}
		return out[i].MeanReturnPct > out[j].MeanReturnPct
	})
	return out
}

// RankSummaries returns a copy of summaries sorted descending by total return %.
func RankSummaries(summaries []Summary) []Summary {
	out := append([]Summary(nil), summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalReturnPct > out[j].TotalReturnPct
	})
	return out
}
