package handlers

import (
	"net/http"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/config"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

// StrategyHandler lists the configured comparison universe
type StrategyHandler struct {
	Config *config.Config
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(cfg *config.Config) *StrategyHandler {
	return &StrategyHandler{Config: cfg}
}

// ListStrategies handles GET /api/v1/strategies?preset=<name>
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	cfg := h.Config
	if name := c.Query("preset"); name != "" {
		p, err := config.Preset(name)
		if err != nil {
			writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
			return
		}
		cfg = p
	}

	resp := models.StrategiesResponse{
		Preset:       cfg.Preset,
		Currency:     cfg.Currency,
		Contribution: cfg.Contribution,
		WindowMonths: cfg.WindowMonths,
		RiskFreeRate: cfg.RiskFreeRate,
		Strategies:   make([]models.StrategyInfo, 0, len(cfg.Strategies)+1),
	}
	for _, s := range cfg.Strategies {
		start := s.Start
		if start == "" {
			start = cfg.Start
		}
		resp.Strategies = append(resp.Strategies, models.StrategyInfo{
			Label:    s.Label,
			Ticker:   s.Ticker,
			FXTicker: s.FXTicker,
			Kind:     string(model.KindPrice),
			Start:    start,
		})
	}
	if b := cfg.Benchmark; b != nil {
		resp.Strategies = append(resp.Strategies, models.StrategyInfo{
			Label:  b.Label,
			Kind:   string(model.KindRate),
			Source: b.Source,
		})
	}
	c.JSON(http.StatusOK, resp)
}
