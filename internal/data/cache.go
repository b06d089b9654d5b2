package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"dca-backtest/internal/model"
)

// CacheEntry is one cached series.
type CacheEntry struct {
	Observations []model.Observation
	ExpiresAt    time.Time
}

// SeriesCache keeps fetched series in memory for a TTL. A nil *SeriesCache is a
// valid cache that never hits.
type SeriesCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// NewSeriesCache creates a cache and starts its cleanup goroutine; call Close to stop it.
func NewSeriesCache(ttl time.Duration) *SeriesCache {
	c := &SeriesCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get retrieves a cached series if available and not expired.
func (c *SeriesCache) Get(key string) ([]model.Observation, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return append([]model.Observation(nil), entry.Observations...), true
}

// Set stores a series in the cache.
func (c *SeriesCache) Set(key string, obs []model.Observation) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Observations: append([]model.Observation(nil), obs...),
		ExpiresAt:    time.Now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache.
func (c *SeriesCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

func (c *SeriesCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *SeriesCache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
}

// cleanup periodically removes expired entries.
func (c *SeriesCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *SeriesCache) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// CacheKey identifies a series request: source, instrument and first month.
func CacheKey(source, id string, start time.Time) string {
	keyStr := fmt.Sprintf("%s:%s:%s", source, id, model.MonthLabel(start))

	// Hash the key to keep it reasonably sized
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
