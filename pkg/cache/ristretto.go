package cache

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// RistrettoCache is a two-tier cache: Ristretto enforces TTLs for the
// fresh tier, and a plain map keeps the last good value per key so the
// feed layer can fall back to stale data when a provider is degraded.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger

	mu    sync.RWMutex
	stale map[string]interface{}
}

// RistrettoConfig holds configuration for the Ristretto-backed cache.
type RistrettoConfig struct {
	NumCounters int64 // Number of keys to track frequency (10x max items)
	MaxCost     int64 // Maximum cost of cache (in items)
	BufferItems int64 // Number of keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a new Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{
		cache:  cache,
		logger: cfg.Logger,
		stale:  make(map[string]interface{}),
	}, nil
}

// Get retrieves a fresh value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.cache.Get(key)
	if found {
		CacheHitsTotal.Inc()
		r.logger.Debug("cache-hit", zap.String("key", key))
	} else {
		CacheMissesTotal.Inc()
		r.logger.Debug("cache-miss", zap.String("key", key))
	}
	return value, found
}

// GetStale retrieves the last known value for a key regardless of TTL.
func (r *RistrettoCache) GetStale(key string) (interface{}, bool) {
	r.mu.RLock()
	value, found := r.stale[key]
	r.mu.RUnlock()

	if found {
		CacheStaleHitsTotal.Inc()
		r.logger.Debug("cache-stale-hit", zap.String("key", key))
	}
	return value, found
}

// Set stores a value in both tiers.
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	r.mu.Lock()
	r.stale[key] = value
	r.mu.Unlock()

	// Cost = 1 (we're counting items, not bytes)
	success := r.cache.SetWithTTL(key, value, 1, ttl)
	if success {
		CacheSetsTotal.Inc()
		r.logger.Debug("cache-set",
			zap.String("key", key),
			zap.Duration("ttl", ttl))
	}
	return success
}

// Delete removes a value from both tiers.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)

	r.mu.Lock()
	delete(r.stale, key)
	r.mu.Unlock()

	CacheDeletesTotal.Inc()
	r.logger.Debug("cache-delete", zap.String("key", key))
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()

	r.mu.Lock()
	r.stale = make(map[string]interface{})
	r.mu.Unlock()

	r.logger.Info("cache-cleared")
}

// Close closes the cache and releases resources.
func (r *RistrettoCache) Close() {
	r.cache.Close()
	r.logger.Info("cache-closed")
}

// Wait blocks until all pending writes have been applied.
// Useful in tests that need a value to be visible immediately.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
