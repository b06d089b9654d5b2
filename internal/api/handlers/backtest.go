package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/compare"
	"dca-backtest/internal/metrics"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BacktestHandler simulates series supplied inline in the request body.
type BacktestHandler struct {
	Defaults model.Params
	Workers  int
	Logger   *zap.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(defaults model.Params, workers int, logger *zap.Logger) *BacktestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktestHandler{Defaults: defaults, Workers: workers, Logger: logger}
}

// Simulate handles POST /api/v1/simulate
func (h *BacktestHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}

	s, err := parseSeries(req.Series)
	if err != nil {
		respondError(c, err)
		return
	}
	params := h.params(req.Contribution, 0, req.RiskFreeRate)
	months := req.Months
	if months == 0 {
		months = s.Len()
	}
	if err := model.CheckMonths(months); err != nil {
		respondError(c, err)
		return
	}

	// the window ends at the latest observation
	obs := s.Observations
	if len(obs) > months {
		obs = obs[len(obs)-months:]
	}
	p, err := backtest.SimulatorFor(s.Kind)(obs, params.Contribution, months)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordSimulations(string(s.Kind), 1)

	resp := models.SimulateResponse{
		ID:      uuid.NewString(),
		Status:  "completed",
		Kind:    string(s.Kind),
		Summary: analysis.Summarize(p, s.Label, params.RiskFreeAnnual),
	}
	if req.IncludeLedger {
		resp.Ledger = convertLedger(p)
	}
	h.Logger.Debug("simulated series",
		zap.String("id", resp.ID), zap.String("label", s.Label), zap.Int("months", months))
	c.JSON(http.StatusOK, resp)
}

// Rolling handles POST /api/v1/rolling
func (h *BacktestHandler) Rolling(c *gin.Context) {
	var req models.RollingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}

	params := h.params(req.Contribution, req.WindowMonths, req.RiskFreeRate)
	if err := params.Validate(); err != nil {
		respondError(c, err)
		return
	}

	opts := compare.Options{Params: params, Workers: h.Workers}
	series := make([]compare.Series, 0, len(req.Series))
	seen := map[string]bool{}
	for _, in := range req.Series {
		s, err := parseSeries(in)
		if err != nil {
			respondError(c, err)
			return
		}
		if seen[s.Label] {
			respondError(c, &model.InvalidInputError{Field: "series.label", Reason: fmt.Sprintf("duplicate label %q", s.Label)})
			return
		}
		seen[s.Label] = true
		series = append(series, s)
		opts.Strategies = append(opts.Strategies, compare.Strategy{Label: s.Label})
	}

	runner := compare.New(nil, nil, opts, h.Logger)
	rr, err := runner.Rolling(c.Request.Context(), series, params.WindowMonths)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, s := range series {
		metrics.RecordSimulations(string(s.Kind), rr.Counts[s.Label])
	}

	resp := models.RollingResponse{
		ID:      uuid.NewString(),
		Status:  "completed",
		Window:  rr.Window,
		Counts:  rr.Counts,
		Common:  rr.Aligned.Common,
		Stats:   rr.Stats,
		Ranking: []string{},
	}
	for _, st := range analysis.RankByMeanReturn(rr.Stats) {
		if st.Windows > 0 {
			resp.Ranking = append(resp.Ranking, st.Strategy)
		}
	}
	if req.IncludeWindows {
		resp.Windows = rr.Aligned.Sets
	}
	c.JSON(http.StatusOK, resp)
}

// params fills zero request values from the server defaults.
func (h *BacktestHandler) params(contribution float64, window int, riskFree *float64) model.Params {
	p := h.Defaults
	if contribution != 0 {
		p.Contribution = contribution
	}
	if window != 0 {
		p.WindowMonths = window
	}
	if riskFree != nil {
		p.RiskFreeAnnual = *riskFree
	}
	return p
}

func parseSeries(in models.SeriesInput) (compare.Series, error) {
	kind := model.Kind(strings.ToUpper(in.Kind))
	if kind == "" {
		kind = model.KindPrice
	}
	if !kind.Valid() {
		return compare.Series{}, &model.InvalidInputError{Field: "series.kind", Reason: fmt.Sprintf("unknown kind %q", in.Kind)}
	}

	raw := make([]model.Observation, 0, len(in.Observations))
	for i, o := range in.Observations {
		t, err := parsePeriod(o.Date)
		if err != nil {
			return compare.Series{}, &model.InvalidInputError{
				Field:  fmt.Sprintf("%s.observations[%d].date", in.Label, i),
				Reason: err.Error(),
			}
		}
		raw = append(raw, model.Observation{Time: t, Value: o.Value})
	}

	var (
		obs []model.Observation
		err error
	)
	if kind == model.KindRate {
		obs, err = model.NormalizeRates(raw)
	} else {
		obs, err = model.NormalizePrices(raw)
	}
	if errors.Is(err, model.ErrDataUnavailable) {
		return compare.Series{}, &model.InvalidInputError{Field: in.Label, Reason: "no usable observations"}
	}
	if err != nil {
		return compare.Series{}, fmt.Errorf("%s: %w", in.Label, err)
	}
	return compare.Series{Label: in.Label, Kind: kind, Observations: obs}, nil
}

func parsePeriod(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM or YYYY-MM-DD, got %q", s)
}

func convertLedger(p *backtest.Path) []models.LedgerRow {
	rows := make([]models.LedgerRow, 0, p.Len())
	for _, r := range p.Records {
		row := models.LedgerRow{
			Index:          r.Index,
			Period:         model.MonthLabel(r.Period),
			TotalInvested:  r.TotalInvested,
			PortfolioValue: r.PortfolioValue,
		}
		if h := r.Holding; h != nil {
			price, bought, total := h.Price, h.SharesBought, h.TotalShares
			row.Price = &price
			row.SharesBought = &bought
			row.TotalShares = &total
		}
		rows = append(rows, row)
	}
	return rows
}
