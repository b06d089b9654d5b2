package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// NormalizePrices turns raw (time, price) points into a canonical monthly PriceSeries:
//   - timestamps are truncated to the month; the last point of a month wins
//   - NaN, infinite and non-positive prices are dropped
//   - months missing between two observations carry the previous price forward
//
// Returns ErrDataUnavailable when nothing usable remains.
func NormalizePrices(obs []Observation) (PriceSeries, error) {
	clean := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) || o.Value <= 0 {
			continue
		}
		clean = append(clean, Observation{Time: o.Time, Value: o.Value})
	}
	monthly := lastPerMonth(clean)
	if len(monthly) == 0 {
		return nil, fmt.Errorf("no positive prices: %w", ErrDataUnavailable)
	}

	out := make(PriceSeries, 0, len(monthly))
	for i, o := range monthly {
		if i > 0 {
			prev := out[len(out)-1]
			for next := prev.Time.AddDate(0, 1, 0); next.Before(o.Time); next = next.AddDate(0, 1, 0) {
				out = append(out, Observation{Time: next, Value: prev.Value})
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// NormalizeRates turns raw (time, factor) points into a canonical monthly RateSeries.
// Unlike prices there is no neutral value to fill a missing month with, so gaps
// are rejected, as are negative or NaN factors.
func NormalizeRates(obs []Observation) (RateSeries, error) {
	for _, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) || o.Value < 0 {
			return nil, invalid("factor", "%s: must be a finite value >= 0, got %v", MonthLabel(o.Time), o.Value)
		}
	}
	monthly := lastPerMonth(obs)
	if len(monthly) == 0 {
		return nil, fmt.Errorf("no compounding factors: %w", ErrDataUnavailable)
	}
	for i := 1; i < len(monthly); i++ {
		want := monthly[i-1].Time.AddDate(0, 1, 0)
		if !monthly[i].Time.Equal(want) {
			return nil, invalid("factor", "gap between %s and %s", MonthLabel(monthly[i-1].Time), MonthLabel(monthly[i].Time))
		}
	}
	return RateSeries(monthly), nil
}

// AggregateDailyRates compounds daily rates (in percent) into monthly factors:
// factor(month) = product over days of (1 + rate/100). NaN days are ignored.
func AggregateDailyRates(days []DailyRate) (RateSeries, error) {
	byMonth := map[time.Time]float64{}
	for _, d := range days {
		if math.IsNaN(d.RatePct) {
			continue
		}
		m := MonthStart(d.Date)
		f, ok := byMonth[m]
		if !ok {
			f = 1
		}
		byMonth[m] = f * (1 + d.RatePct/100)
	}
	obs := make([]Observation, 0, len(byMonth))
	for m, f := range byMonth {
		obs = append(obs, Observation{Time: m, Value: f})
	}
	return NormalizeRates(obs)
}

// ConvertPrices re-prices a series in another currency by multiplying each price by
// the FX rate of the same month. Only months present in both series are kept.
func ConvertPrices(prices, fx PriceSeries) PriceSeries {
	rates := make(map[time.Time]float64, len(fx))
	for _, o := range fx {
		rates[o.Time] = o.Value
	}
	out := make(PriceSeries, 0, len(prices))
	for _, o := range prices {
		r, ok := rates[o.Time]
		if !ok {
			continue
		}
		out = append(out, Observation{Time: o.Time, Value: o.Value * r})
	}
	return out
}

// lastPerMonth truncates to months, sorts and keeps the latest point of each month.
func lastPerMonth(obs []Observation) []Observation {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := make([]Observation, 0, len(sorted))
	for _, o := range sorted {
		m := MonthStart(o.Time)
		if n := len(out); n > 0 && out[n-1].Time.Equal(m) {
			out[n-1].Value = o.Value
			continue
		}
		out = append(out, Observation{Time: m, Value: o.Value})
	}
	return out
}
