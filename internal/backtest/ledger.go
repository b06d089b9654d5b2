package backtest

import (
	"time"

	"dca-backtest/internal/model"
)

// Holding is the share-accounting part of a record. It only exists for
// price-driven paths; rate-driven paths have no price or units.
type Holding struct {
	Price        float64 `json:"price"`
	SharesBought float64 `json:"shares_bought"`
	TotalShares  float64 `json:"total_shares"`
}

// Record is one contribution event of a simulation path.
type Record struct {
	Index  int       `json:"index"`
	Period time.Time `json:"period"`

	Holding *Holding `json:"holding,omitempty"`

	TotalInvested  float64 `json:"total_invested"`
	PortfolioValue float64 `json:"portfolio_value"`
}

// Path is the full, immutable output of one simulation.
// Records are in period order and TotalInvested of record i equals contribution*(i+1).
type Path struct {
	Kind         model.Kind `json:"kind"`
	Contribution float64    `json:"contribution"`
	Records      []Record   `json:"records"`
}

func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Records)
}

// Start returns the first period. Zero time for an empty path.
func (p *Path) Start() time.Time {
	if p.Len() == 0 {
		return time.Time{}
	}
	return p.Records[0].Period
}

// End returns the last period. Zero time for an empty path.
func (p *Path) End() time.Time {
	if p.Len() == 0 {
		return time.Time{}
	}
	return p.Records[len(p.Records)-1].Period
}

// Final returns the last record, or a zero Record for an empty path.
func (p *Path) Final() Record {
	if p.Len() == 0 {
		return Record{}
	}
	return p.Records[len(p.Records)-1]
}

// Values returns portfolio values in period order.
func (p *Path) Values() []float64 {
	if p == nil {
		return nil
	}
	out := make([]float64, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.PortfolioValue
	}
	return out
}

// Invested returns cumulative invested amounts in period order.
func (p *Path) Invested() []float64 {
	if p == nil {
		return nil
	}
	out := make([]float64, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.TotalInvested
	}
	return out
}
