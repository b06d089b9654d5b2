package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dca-backtest/internal/compare"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/logging"
	"dca-backtest/internal/model"
)

// update-cache refreshes the persistent series cache for every instrument of a
// config, so later compare runs and the API can work from stored data.
func main() {
	var (
		cfgPath = flag.String("config", "", "Path to YAML config (default: built-in preset)")
		preset  = flag.String("preset", "us", "Preset used when no config is given: us | brazil")
		force   = flag.Bool("force", false, "Re-download series even when a fresh copy is stored")
	)
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.Preset(*preset)
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}
	if cfg.Cache.Driver == "" || cfg.Cache.Driver == "memory" {
		log.Fatal("cache.driver is memory; nothing would persist (use sqlite or postgres)")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := data.OpenProvider(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer closeProvider()
	if *force {
		// Anything stored is older than a nanosecond.
		provider.MaxAge = time.Nanosecond
	}

	opts, err := compare.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	fmt.Printf("Updating %s cache for %d instruments\n", cfg.Cache.Driver, len(opts.Labels()))
	series, skips, err := compare.New(provider, provider, opts, logger).Load(ctx)
	if err != nil {
		log.Fatalf("Failed to update cache: %v", err)
	}

	for _, s := range series {
		first, last, ok := model.Span(s.Observations)
		if !ok {
			fmt.Printf("  %-25s empty\n", s.Label)
			continue
		}
		fmt.Printf("  %-25s %4d months  %s to %s\n", s.Label, s.Len(), model.MonthLabel(first), model.MonthLabel(last))
	}
	for _, s := range skips {
		fmt.Printf("  %-25s skipped: %s\n", s.Label, s.Reason)
	}
	fmt.Printf("Cached %d series (%d unavailable)\n", len(series), len(skips))
}
