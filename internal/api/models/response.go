package models

import (
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/compare"
)

// SimulateResponse represents the response from a single-window simulation
type SimulateResponse struct {
	ID      string           `json:"id,omitempty"`
	Status  string           `json:"status"`
	Kind    string           `json:"kind"`
	Summary analysis.Summary `json:"summary"`
	Ledger  []LedgerRow      `json:"ledger,omitempty"`
}

// LedgerRow represents one contribution of a simulation path. Price and share
// fields are null for rate-driven paths.
type LedgerRow struct {
	Index          int      `json:"index"`
	Period         string   `json:"period"` // YYYY-MM
	Price          *float64 `json:"price"`
	SharesBought   *float64 `json:"shares_bought"`
	TotalShares    *float64 `json:"total_shares"`
	TotalInvested  float64  `json:"total_invested"`
	PortfolioValue float64  `json:"portfolio_value"`
}

// RollingResponse represents the aligned rolling-window comparison of inline series
type RollingResponse struct {
	ID      string                  `json:"id,omitempty"`
	Status  string                  `json:"status"`
	Window  int                     `json:"window_months"`
	Counts  map[string]int          `json:"counts"`
	Common  []string                `json:"common_starts"`
	Stats   []analysis.RollingStats `json:"stats"`
	Ranking []string                `json:"ranking"`
	// Windows is only set when requested.
	Windows map[string][]analysis.Summary `json:"windows,omitempty"`
}

// CompareResponse represents a finished comparison run
type CompareResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Result    *compare.Result `json:"result"`
}

// RankResponse represents strategies of a comparison ordered by mean rolling return
type RankResponse struct {
	ID       string    `json:"id"`
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked strategy
type Ranking struct {
	Rank           int     `json:"rank"`
	Strategy       string  `json:"strategy"`
	Windows        int     `json:"windows"`
	MeanReturnPct  float64 `json:"mean_return_pct"`
	MaxReturnPct   float64 `json:"max_return_pct"`
	MinReturnPct   float64 `json:"min_return_pct"`
	MeanFinalValue float64 `json:"mean_final_value"`
}

// StrategyInfo represents one configured instrument
type StrategyInfo struct {
	Label    string `json:"label"`
	Ticker   string `json:"ticker,omitempty"`
	FXTicker string `json:"fx_ticker,omitempty"`
	Kind     string `json:"kind"`
	Start    string `json:"start,omitempty"`
	Source   string `json:"source,omitempty"`
}

// StrategiesResponse lists the configured universe and run parameters
type StrategiesResponse struct {
	Preset       string         `json:"preset"`
	Currency     string         `json:"currency"`
	Contribution float64        `json:"contribution"`
	WindowMonths int            `json:"window_months"`
	RiskFreeRate float64        `json:"risk_free_rate"`
	Strategies   []StrategyInfo `json:"strategies"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
