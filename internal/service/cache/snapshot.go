package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"CoinSentry/internal/domain/models"
	"CoinSentry/pkg/cache"
	"CoinSentry/pkg/logger"
)

// SnapshotCache memoizes per-symbol market snapshots for the
// configured TTL so the monitor sweep and the HTTP API do not hit
// the upstream providers for every request.
type SnapshotCache struct {
	store cache.Service
	ttl   time.Duration
	log   *logger.Logger
}

// NewSnapshotCache creates a snapshot cache on top of a cache backend.
func NewSnapshotCache(store cache.Service, ttl time.Duration, log *logger.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache{store: store, ttl: ttl, log: log}
}

// Get returns the cached snapshot for symbol, or nil on a miss.
func (c *SnapshotCache) Get(ctx context.Context, symbol string) *models.MarketSnapshot {
	var snap models.MarketSnapshot
	if err := c.store.Get(ctx, c.key(symbol), &snap); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.Warn("snapshot cache read failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		}
		return nil
	}
	return &snap
}

// Set stores the snapshot under its symbol for the cache TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap *models.MarketSnapshot) {
	if snap == nil {
		return
	}
	if err := c.store.Set(ctx, c.key(snap.Symbol), snap, c.ttl); err != nil {
		c.log.Warn("snapshot cache write failed",
			logger.String("symbol", snap.Symbol),
			logger.Error(err))
	}
}

// Invalidate drops the cached snapshot for symbol.
func (c *SnapshotCache) Invalidate(ctx context.Context, symbol string) {
	if err := c.store.Delete(ctx, c.key(symbol)); err != nil {
		c.log.Warn("snapshot cache invalidate failed",
			logger.String("symbol", symbol),
			logger.Error(err))
	}
}

func (c *SnapshotCache) key(symbol string) string {
	return "snapshot:" + strings.ToUpper(symbol)
}
