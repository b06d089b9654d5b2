package model

import "math"

// Params are the contribution settings shared by every simulation in a run.
// They are passed explicitly into the simulators and the metrics engine.
type Params struct {
	Contribution   float64 // amount invested every month
	WindowMonths   int     // length of the fixed and rolling windows
	RiskFreeAnnual float64 // annual risk-free rate used by the Sharpe ratio (0.03 = 3%)
}

// DefaultParams matches a $1,000 monthly contribution over ten years.
func DefaultParams() Params {
	return Params{
		Contribution:   1000,
		WindowMonths:   120,
		RiskFreeAnnual: 0.03,
	}
}

func (p Params) Validate() error {
	if err := CheckContribution(p.Contribution); err != nil {
		return err
	}
	if err := CheckMonths(p.WindowMonths); err != nil {
		return err
	}
	if math.IsNaN(p.RiskFreeAnnual) || p.RiskFreeAnnual <= -1 {
		return invalid("risk_free_rate", "must be > -1, got %v", p.RiskFreeAnnual)
	}
	return nil
}

// CheckContribution rejects non-positive or non-finite amounts.
func CheckContribution(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
		return invalid("contribution", "must be > 0, got %v", c)
	}
	return nil
}

// CheckMonths rejects window lengths <= 0.
func CheckMonths(n int) error {
	if n <= 0 {
		return invalid("months", "must be > 0, got %d", n)
	}
	return nil
}
