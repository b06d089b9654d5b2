package model

import (
	"time"
)

// MonthLayout is the label format used for period start/end dates.
const MonthLayout = "2006-01"

// Observation is one (period, value) point of a monthly series.
// Time is always the first instant of the month in UTC once normalized.
type Observation struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// PriceSeries holds positive instrument prices, one per month, strictly increasing
// in time with no gaps. Build it with NormalizePrices.
type PriceSeries []Observation

// RateSeries holds monthly compounding factors (1.009 = +0.9% that month).
// Build it with NormalizeRates or AggregateDailyRates.
type RateSeries []Observation

// DailyRate is one day of a fixed-income benchmark quoted as an effective
// daily rate in percent (0.04 means +0.04% that day).
type DailyRate struct {
	Date    time.Time
	RatePct float64
}

// MonthStart truncates t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabel formats t as YYYY-MM.
func MonthLabel(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// Observations returns the series as a plain slice.
func (s PriceSeries) Observations() []Observation { return s }

// Observations returns the series as a plain slice.
func (s RateSeries) Observations() []Observation { return s }

// Last returns the trailing n observations (or all of them when n >= len).
func (s PriceSeries) Last(n int) PriceSeries {
	if n >= len(s) || n < 0 {
		return s
	}
	return s[len(s)-n:]
}

// Last returns the trailing n observations (or all of them when n >= len).
func (s RateSeries) Last(n int) RateSeries {
	if n >= len(s) || n < 0 {
		return s
	}
	return s[len(s)-n:]
}

// Span returns the first and last period of a series. ok is false for an empty series.
func Span(obs []Observation) (first, last time.Time, ok bool) {
	if len(obs) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return obs[0].Time, obs[len(obs)-1].Time, true
}
