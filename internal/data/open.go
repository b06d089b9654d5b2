package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dca-backtest/internal/config"
	"dca-backtest/internal/storage"

	"go.uber.org/zap"
)

// OpenProvider builds the cached Yahoo/BCB provider described by cfg. The
// returned close func releases the store and stops the memory cache.
func OpenProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Provider, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Cache.Driver == "sqlite" && !strings.HasPrefix(cfg.Cache.DSN, "file:") {
		if dir := filepath.Dir(cfg.Cache.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create cache directory: %w", err)
			}
		}
	}
	store, err := storage.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Driver, err)
	}

	memory := NewSeriesCache(cfg.Cache.TTL)
	p := NewProvider(NewYahooClient(logger), NewBCBClient("", logger), memory, store, logger)
	p.MaxAge = cfg.Cache.MaxAge

	closeFn := func() {
		memory.Close()
		if err := store.Close(); err != nil {
			logger.Warn("close cache store", zap.Error(err))
		}
	}
	return p, closeFn, nil
}
