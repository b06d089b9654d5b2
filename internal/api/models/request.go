package models

// ObservationInput is one dated value of an inline series.
type ObservationInput struct {
	Date  string  `json:"date" binding:"required"` // YYYY-MM or YYYY-MM-DD
	Value float64 `json:"value"`
}

// SeriesInput is a series supplied in the request body instead of fetched.
type SeriesInput struct {
	Label        string             `json:"label" binding:"required"`
	Kind         string             `json:"kind,omitempty"` // "PRICE" (default) or "RATE"
	Observations []ObservationInput `json:"observations" binding:"required,min=1"`
}

// SimulateRequest represents the request body for a single-window simulation
type SimulateRequest struct {
	Series        SeriesInput `json:"series"`
	Contribution  float64     `json:"contribution,omitempty"`   // default: server config
	Months        int         `json:"months,omitempty"`         // default: whole series
	RiskFreeRate  *float64    `json:"risk_free_rate,omitempty"` // default: server config
	IncludeLedger bool        `json:"include_ledger,omitempty"`
}

// RollingRequest runs rolling windows over one or more inline series and aligns them
type RollingRequest struct {
	Series         []SeriesInput `json:"series" binding:"required,min=1,dive"`
	Contribution   float64       `json:"contribution,omitempty"`
	WindowMonths   int           `json:"window_months,omitempty"`
	RiskFreeRate   *float64      `json:"risk_free_rate,omitempty"`
	IncludeWindows bool          `json:"include_windows,omitempty"` // return every aligned summary
}

// CompareRequest runs a full comparison against remote data sources. An empty
// request compares the server's configured universe.
type CompareRequest struct {
	Preset       string          `json:"preset,omitempty"` // "us" or "brazil"
	Strategies   []StrategyInput `json:"strategies,omitempty" binding:"omitempty,dive"`
	Benchmark    *BenchmarkInput `json:"benchmark,omitempty"`
	Contribution float64         `json:"contribution,omitempty"`
	WindowMonths int             `json:"window_months,omitempty"`
	RiskFreeRate *float64        `json:"risk_free_rate,omitempty"`
}

type StrategyInput struct {
	Label    string `json:"label" binding:"required"`
	Ticker   string `json:"ticker" binding:"required"`
	FXTicker string `json:"fx_ticker,omitempty"`
	Start    string `json:"start,omitempty"` // YYYY-MM-DD
}

type BenchmarkInput struct {
	Label    string `json:"label" binding:"required"`
	FromYear int    `json:"from_year,omitempty"`
}
