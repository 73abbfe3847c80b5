package forecast

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Cache stores successful timelines.
type Cache interface {
	Get(ctx context.Context, key string) (Timeline, bool, error)
	Set(ctx context.Context, key string, tl Timeline, ttl time.Duration) error
}

// CacheKey identifies a timeline by step and normalized coordinates.
func CacheKey(coords geo.Coordinates, step Timestep) string {
	return "forecast:" + string(step) + ":" + coords.Normalize().String()
}

// CachedFetcher serves timelines from a cache and collapses concurrent
// identical fetches into one provider call. Cache failures are logged and
// never fail a fetch.
type CachedFetcher struct {
	next   Fetcher
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedFetcher decorates next with cache.
func NewCachedFetcher(next Fetcher, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "forecast.cache"),
	}
}

// Fetch implements Fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, coords geo.Coordinates, step Timestep) (Timeline, error) {
	key := CacheKey(coords, step)
	if tl, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("forecast cache read failed", "key", key, "error", err)
	} else if ok {
		c.logger.Debug("forecast cache hit", "key", key)
		return tl, nil
	}

	// The shared call outlives any single caller; each caller stops waiting
	// on its own context.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		tl, err := c.next.Fetch(detached, coords, step)
		if err != nil {
			return Timeline{}, err
		}
		if c.ttl > 0 {
			if err := c.cache.Set(detached, key, tl, c.ttl); err != nil {
				c.logger.Warn("forecast cache write failed", "key", key, "error", err)
			}
		}
		return tl, nil
	})

	select {
	case <-ctx.Done():
		return Timeline{}, &FetchError{Reason: ReasonNetwork, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Timeline{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("forecast fetch shared", "key", key)
		}
		return res.Val.(Timeline), nil
	}
}

var _ Fetcher = (*CachedFetcher)(nil)
