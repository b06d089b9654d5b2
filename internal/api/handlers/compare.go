package handlers

import (
	"net/http"
	"sync"
	"time"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/compare"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxStoredRuns bounds how many finished comparisons are kept for lookup.
const maxStoredRuns = 32

// CompareHandler runs comparisons against the remote data sources and keeps
// the most recent results for ledger and ranking lookups.
type CompareHandler struct {
	Config *config.Config
	Prices data.PriceSource
	Rates  data.RateSource
	Logger *zap.Logger

	mu    sync.Mutex
	runs  map[string]*models.CompareResponse
	order []string
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(cfg *config.Config, prices data.PriceSource, rates data.RateSource, logger *zap.Logger) *CompareHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompareHandler{
		Config: cfg,
		Prices: prices,
		Rates:  rates,
		Logger: logger,
		runs:   map[string]*models.CompareResponse{},
	}
}

// Compare handles POST /api/v1/compare
func (h *CompareHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
			return
		}
	}

	cfg, err := h.buildConfig(req)
	if err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidInput, err.Error(), nil)
		return
	}
	opts, err := compare.OptionsFromConfig(cfg)
	if err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidInput, err.Error(), nil)
		return
	}

	id := uuid.NewString()
	log := h.Logger.With(zap.String("run_id", id))
	started := time.Now()
	res, err := compare.New(h.Prices, h.Rates, opts, log).Run(c.Request.Context())
	if err != nil {
		metrics.RecordComparison("failure", time.Since(started).Seconds())
		log.Error("comparison failed", zap.Error(err))
		respondError(c, err)
		return
	}
	metrics.RecordComparison("success", time.Since(started).Seconds())
	log.Info("comparison finished",
		zap.Int("instruments", len(res.Series)),
		zap.Duration("elapsed", time.Since(started)))

	resp := &models.CompareResponse{
		ID:        id,
		Status:    "completed",
		CreatedAt: started.UTC(),
		Result:    res,
	}
	h.store(resp)
	c.JSON(http.StatusOK, resp)
}

// GetComparison handles GET /api/v1/compare/:id
func (h *CompareHandler) GetComparison(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetLedger handles GET /api/v1/compare/:id/ledger?strategy=<label>&window=latest|all_assets
func (h *CompareHandler) GetLedger(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	label := c.Query("strategy")
	if label == "" {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, "strategy query parameter is required", nil)
		return
	}

	wr := run.Result.Latest
	if c.DefaultQuery("window", "latest") == "all_assets" {
		wr = run.Result.AllAssets
	}
	if wr == nil {
		writeError(c, http.StatusNotFound, CodeNotFound, "window not available for this comparison", nil)
		return
	}
	p, ok := wr.Paths[label]
	if !ok {
		writeError(c, http.StatusNotFound, CodeNotFound, "strategy not in window", map[string]interface{}{
			"strategy":  label,
			"available": wr.Labels,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       run.ID,
		"strategy": label,
		"months":   wr.Months,
		"ledger":   convertLedger(p),
	})
}

// buildConfig layers request overrides on top of the server config or a preset.
func (h *CompareHandler) buildConfig(req models.CompareRequest) (*config.Config, error) {
	var cfg config.Config
	if req.Preset != "" {
		p, err := config.Preset(req.Preset)
		if err != nil {
			return nil, err
		}
		cfg = *p
		cfg.Cache = h.Config.Cache
		cfg.Workers = h.Config.Workers
	} else {
		cfg = *h.Config
	}

	if len(req.Strategies) > 0 {
		cfg.Strategies = make([]config.StrategyConfig, 0, len(req.Strategies))
		for _, s := range req.Strategies {
			cfg.Strategies = append(cfg.Strategies, config.StrategyConfig{
				Label:    s.Label,
				Ticker:   s.Ticker,
				FXTicker: s.FXTicker,
				Start:    s.Start,
			})
		}
		cfg.Benchmark = nil
	}
	if b := req.Benchmark; b != nil {
		fromYear := b.FromYear
		if fromYear == 0 {
			fromYear = 2000
		}
		cfg.Benchmark = &config.BenchmarkConfig{Label: b.Label, Source: config.BenchmarkSourceCDI, FromYear: fromYear}
	}
	if req.Contribution != 0 {
		cfg.Contribution = req.Contribution
	}
	if req.WindowMonths != 0 {
		cfg.WindowMonths = req.WindowMonths
	}
	if req.RiskFreeRate != nil {
		cfg.RiskFreeRate = *req.RiskFreeRate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (h *CompareHandler) store(run *models.CompareResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[run.ID] = run
	h.order = append(h.order, run.ID)
	for len(h.order) > maxStoredRuns {
		delete(h.runs, h.order[0])
		h.order = h.order[1:]
	}
}

func (h *CompareHandler) lookup(c *gin.Context) (*models.CompareResponse, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, "id must be a UUID", nil)
		return nil, false
	}
	h.mu.Lock()
	run, ok := h.runs[id]
	h.mu.Unlock()
	if !ok {
		writeError(c, http.StatusNotFound, CodeNotFound, "comparison not found", map[string]interface{}{"id": id})
		return nil, false
	}
	return run, true
}
