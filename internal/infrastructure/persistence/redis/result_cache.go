package redis

import (
	"context"
	"errors"

	"github.com/hakwon-hub/academy-insight-hub/internal/application/query"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT CACHES
// Adapters from the generic Cache to the query-layer cache interfaces.
// Every failure degrades to a miss or a no-op: a Redis outage slows
// requests down, it never fails them.
// ══════════════════════════════════════════════════════════════════════════════

// WatchlistCache implements query.WatchlistCache over Redis.
type WatchlistCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewWatchlistCache creates a watchlist result cache.
func NewWatchlistCache(cache *Cache, log *logger.Logger) *WatchlistCache {
	return &WatchlistCache{
		cache: cache,
		log:   log.With(logger.Component("watchlist_cache")),
	}
}

// Get returns the cached result for the parameter pair, if present.
func (c *WatchlistCache) Get(ctx context.Context, windowDays, topK int) (*query.GetWatchlistResult, bool) {
	var result query.GetWatchlistResult
	err := c.cache.Get(ctx, WatchlistKey(windowDays, topK), &result)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("watchlist cache read failed", logger.Err(err))
		}
		return nil, false
	}
	return &result, true
}

// Set stores the result with the standard TTL.
func (c *WatchlistCache) Set(ctx context.Context, windowDays, topK int, result *query.GetWatchlistResult) {
	if err := c.cache.Set(ctx, WatchlistKey(windowDays, topK), result, TTLWatchlist); err != nil {
		c.log.Warn("watchlist cache write failed", logger.Err(err))
	}
}

// Invalidate drops all cached watchlist results. Called after a snapshot
// write so the next read reflects fresh data.
func (c *WatchlistCache) Invalidate(ctx context.Context) {
	if err := c.cache.DeleteByPattern(ctx, PrefixWatchlist+"*"); err != nil {
		c.log.Warn("watchlist cache invalidation failed", logger.Err(err))
	}
}

// FunnelCache implements query.FunnelCache over Redis.
type FunnelCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewFunnelCache creates a funnel result cache.
func NewFunnelCache(cache *Cache, log *logger.Logger) *FunnelCache {
	return &FunnelCache{
		cache: cache,
		log:   log.With(logger.Component("funnel_cache")),
	}
}

// Get returns the cached funnel result, if present.
func (c *FunnelCache) Get(ctx context.Context, trailingMonths int) (*query.GetFunnelResult, bool) {
	var result query.GetFunnelResult
	err := c.cache.Get(ctx, FunnelKey(trailingMonths), &result)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("funnel cache read failed", logger.Err(err))
		}
		return nil, false
	}
	return &result, true
}

// Set stores the result with the standard TTL.
func (c *FunnelCache) Set(ctx context.Context, trailingMonths int, result *query.GetFunnelResult) {
	if err := c.cache.Set(ctx, FunnelKey(trailingMonths), result, TTLFunnel); err != nil {
		c.log.Warn("funnel cache write failed", logger.Err(err))
	}
}
