package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RollingStats is the distribution of one strategy's aligned rolling windows.
type RollingStats struct {
	Strategy string `json:"strategy"`
	Windows  int    `json:"windows"`

	MeanReturnPct float64 `json:"mean_return_pct"`
	MaxReturnPct  float64 `json:"max_return_pct"`
	MaxStart      string  `json:"max_start"`
	MinReturnPct  float64 `json:"min_return_pct"`
	MinStart      string  `json:"min_start"`

	MeanFinalValue   float64 `json:"mean_final_value"`
	P05FinalValue    float64 `json:"p05_final_value"`
	MedianFinalValue float64 `json:"median_final_value"`
	P95FinalValue    float64 `json:"p95_final_value"`
}

// Aggregate computes RollingStats per strategy in set.Labels order. Strategies
// with no aligned windows get a zero-valued entry with Windows == 0.
func Aggregate(set AlignedSet) []RollingStats {
	out := make([]RollingStats, 0, len(set.Labels))
	for _, label := range set.Labels {
		out = append(out, aggregateOne(label, set.Sets[label]))
	}
	return out
}

func aggregateOne(label string, summaries []Summary) RollingStats {
	st := RollingStats{Strategy: label, Windows: len(summaries)}
	if len(summaries) == 0 {
		return st
	}

	rets := make([]float64, len(summaries))
	finals := make([]float64, len(summaries))
	maxv, minv := math.Inf(-1), math.Inf(1)
	for i, s := range summaries {
		rets[i] = s.TotalReturnPct
		finals[i] = s.FinalValue
		// first occurrence wins ties
		if s.TotalReturnPct > maxv {
			maxv = s.TotalReturnPct
			st.MaxStart = s.StartDate
		}
		if s.TotalReturnPct < minv {
			minv = s.TotalReturnPct
			st.MinStart = s.StartDate
		}
	}
	st.MeanReturnPct = stat.Mean(rets, nil)
	st.MaxReturnPct = maxv
	st.MinReturnPct = minv
	st.MeanFinalValue = stat.Mean(finals, nil)

	sort.Float64s(finals)
	st.P05FinalValue = percentileSorted(finals, 0.05)
	st.MedianFinalValue = percentileSorted(finals, 0.5)
	st.P95FinalValue = percentileSorted(finals, 0.95)
	return st
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
