package api

import (
	"net/http"

	"dca-backtest/internal/api/handlers"
	"dca-backtest/internal/api/middleware"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Config *config.Config
	Prices data.PriceSource
	Rates  data.RateSource
	Logger *zap.Logger
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}

// NewRouter wires middleware, handlers and routes.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if d.Config.API.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(d.AllowedOrigins...))
	router.Use(middleware.Logger(logger))

	backtestHandler := handlers.NewBacktestHandler(d.Config.Params(), d.Config.Workers, logger)
	compareHandler := handlers.NewCompareHandler(d.Config, d.Prices, d.Rates, logger)
	strategyHandler := handlers.NewStrategyHandler(d.Config)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/strategies", strategyHandler.ListStrategies)

		v1.POST("/simulate", backtestHandler.Simulate)
		v1.POST("/rolling", backtestHandler.Rolling)

		v1.POST("/compare", compareHandler.Compare)
		v1.GET("/compare/:id", compareHandler.GetComparison)
		v1.GET("/compare/:id/ledger", compareHandler.GetLedger)
		v1.GET("/compare/:id/rank", compareHandler.Rank)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": handlers.CodeNotFound, "message": "Not found"}})
	})
	return router
}
