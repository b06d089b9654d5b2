package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dca-backtest/internal/api"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (default: built-in preset)")
	preset := flag.String("preset", "us", "Preset used when no config file is given: us | brazil")
	envFile := flag.String("env", ".env", "Optional .env file")
	flag.Parse()

	// .env is optional; real environment variables win.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgPath, *preset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if v := os.Getenv("API_ENV"); v != "" {
		cfg.API.Env = v
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON || cfg.API.Env == "production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := data.OpenProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open data provider", zap.Error(err))
	}
	defer closeProvider()

	var origins []string
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	router := api.NewRouter(api.Deps{
		Config:         cfg,
		Prices:         provider,
		Rates:          provider,
		Logger:         logger,
		AllowedOrigins: origins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting API server",
		zap.String("addr", srv.Addr),
		zap.String("preset", cfg.Preset),
		zap.String("cache", cfg.Cache.Driver),
		zap.Int("strategies", len(cfg.Strategies)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func loadConfig(path, preset string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadUnchecked(path)
	} else {
		cfg, err = config.Preset(preset)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
