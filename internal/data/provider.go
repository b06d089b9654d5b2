package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dca-backtest/internal/model"
	"dca-backtest/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Provider serves prices and benchmark factors from the memory cache, then the
// persistent store, then the remote sources. Concurrent requests for the same
// series share one fetch.
type Provider struct {
	Prices PriceSource
	Rates  RateSource
	Memory *SeriesCache
	Store  storage.Store
	// MaxAge bounds how old a stored series may be; 0 keeps stored series forever.
	MaxAge time.Duration
	Logger *zap.Logger

	group singleflight.Group
}

func NewProvider(prices PriceSource, rates RateSource, memory *SeriesCache, store storage.Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{Prices: prices, Rates: rates, Memory: memory, Store: store, Logger: logger}
}

func (p *Provider) MonthlyPrices(ctx context.Context, ticker string, start time.Time) (model.PriceSeries, error) {
	if p.Prices == nil {
		return nil, fmt.Errorf("%s: no price source configured: %w", ticker, model.ErrDataUnavailable)
	}
	req := seriesRequest{source: "prices", id: ticker, kind: model.KindPrice, start: start}
	obs, err := p.load(ctx, req, func(ctx context.Context) ([]model.Observation, error) {
		return p.Prices.MonthlyPrices(ctx, ticker, start)
	})
	return model.PriceSeries(obs), err
}

func (p *Provider) MonthlyFactors(ctx context.Context, fromYear int) (model.RateSeries, error) {
	if p.Rates == nil {
		return nil, fmt.Errorf("benchmark: no rate source configured: %w", model.ErrDataUnavailable)
	}
	start := time.Date(fromYear, 1, 1, 0, 0, 0, 0, time.UTC)
	req := seriesRequest{source: "rates", id: "cdi", kind: model.KindRate, start: start}
	obs, err := p.load(ctx, req, func(ctx context.Context) ([]model.Observation, error) {
		return p.Rates.MonthlyFactors(ctx, fromYear)
	})
	return model.RateSeries(obs), err
}

type seriesRequest struct {
	source string
	id     string
	kind   model.Kind
	start  time.Time
}

func (p *Provider) load(ctx context.Context, req seriesRequest, fetch func(context.Context) ([]model.Observation, error)) ([]model.Observation, error) {
	key := CacheKey(req.source, req.id, req.start)
	if obs, ok := p.Memory.Get(key); ok {
		p.logger().Debug("memory cache hit", zap.String("id", req.id))
		return obs, nil
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		if obs, ok := p.fromStore(ctx, key, req); ok {
			p.Memory.Set(key, obs)
			return obs, nil
		}

		obs, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		p.logger().Info("fetched series",
			zap.String("source", req.source), zap.String("id", req.id), zap.Int("months", len(obs)))
		p.Memory.Set(key, obs)
		p.toStore(ctx, key, req, obs)
		return obs, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]model.Observation(nil), v.([]model.Observation)...), nil
}

func (p *Provider) fromStore(ctx context.Context, key string, req seriesRequest) ([]model.Observation, bool) {
	if p.Store == nil {
		return nil, false
	}
	e, err := p.Store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		p.logger().Warn("series store read failed", zap.String("id", req.id), zap.Error(err))
		return nil, false
	}
	if p.MaxAge > 0 && time.Since(e.FetchedAt) > p.MaxAge {
		p.logger().Debug("stored series is stale", zap.String("id", req.id), zap.Time("fetched_at", e.FetchedAt))
		return nil, false
	}
	p.logger().Debug("store cache hit", zap.String("id", req.id))
	return e.Observations, true
}

func (p *Provider) toStore(ctx context.Context, key string, req seriesRequest, obs []model.Observation) {
	if p.Store == nil {
		return
	}
	err := p.Store.Put(ctx, &storage.Entry{
		Key:          key,
		Source:       req.source,
		ID:           req.id,
		Kind:         req.kind,
		FetchedAt:    time.Now().UTC(),
		Observations: obs,
	})
	if err != nil {
		p.logger().Warn("series store write failed", zap.String("id", req.id), zap.Error(err))
	}
}

func (p *Provider) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
