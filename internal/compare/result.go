package compare

import (
	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
)

// Series is a loaded instrument ready to simulate.
type Series struct {
	Label        string              `json:"label"`
	Kind         model.Kind          `json:"kind"`
	Observations []model.Observation `json:"observations"`
}

func (s Series) Len() int { return len(s.Observations) }

// Skip records an instrument left out of part of the comparison.
type Skip struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
	Months int    `json:"months,omitempty"`
}

// WindowResult is a single fixed-length window per instrument, ending at its latest month.
type WindowResult struct {
	Months    int                       `json:"months"`
	Labels    []string                  `json:"labels"`
	Summaries []analysis.Summary        `json:"summaries"`
	Paths     map[string]*backtest.Path `json:"-"`
}

// RollingResult is the aligned rolling-window comparison.
type RollingResult struct {
	Window  int                     `json:"window"`
	Counts  map[string]int          `json:"counts"` // windows per instrument before alignment
	Aligned analysis.AlignedSet     `json:"aligned"`
	Stats   []analysis.RollingStats `json:"stats"`
}

type Result struct {
	Series      []Series `json:"-"`
	Unavailable []Skip   `json:"unavailable"`

	Latest        *WindowResult `json:"latest"`
	SkippedLatest []Skip        `json:"skipped_latest"`
	// AllAssets is set only when some instrument was too short for the main window.
	AllAssets *WindowResult  `json:"all_assets,omitempty"`
	Rolling   *RollingResult `json:"rolling"`
}
