package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/tbarret/wagerbook/pkg/cache"
	"go.uber.org/zap"
)

// Fetcher wraps the cache read-through policy shared by both provider
// clients:
//
//  1. A non-expired entry is returned without a network call.
//  2. Otherwise the fill function is called; on success the payload is
//     stored and returned.
//  3. On fill failure a stale entry, if any, is returned with stale=true
//     and no error; without one the failure propagates.
type Fetcher struct {
	cache  cache.Cache
	logger *zap.Logger
}

// NewFetcher creates a fetcher over the given cache.
func NewFetcher(c cache.Cache, logger *zap.Logger) *Fetcher {
	return &Fetcher{cache: c, logger: logger}
}

// Fetch returns the payload for key, refreshing it through fill when the
// cached copy is older than ttl. The returned bool reports whether the
// payload came from the stale tier.
func (f *Fetcher) Fetch(ctx context.Context, key string, ttl time.Duration, fill func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if value, ok := f.cache.Get(key); ok {
		if payload, ok := value.([]byte); ok {
			return payload, false, nil
		}
	}

	payload, err := fill(ctx)
	if err == nil {
		f.cache.Set(key, payload, ttl)
		return payload, false, nil
	}

	FetchErrorsTotal.Inc()
	if value, ok := f.cache.GetStale(key); ok {
		if stale, ok := value.([]byte); ok {
			StaleServesTotal.Inc()
			f.logger.Warn("serving-stale-payload",
				zap.String("key", key),
				zap.Error(err))
			return stale, true, nil
		}
	}

	return nil, false, fmt.Errorf("%w: fetch %s: %v", ErrProviderUnavailable, key, err)
}
