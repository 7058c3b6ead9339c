package cache

import "time"

// Cache is the interface for caching provider responses.
type Cache interface {
	// Get retrieves a fresh value from the cache.
	// Returns (value, true) if found and not expired, (nil, false) otherwise.
	Get(key string) (interface{}, bool)

	// GetStale retrieves the last known value for a key, even if its TTL
	// has expired. Used as a fallback when the upstream provider is down.
	GetStale(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL and retains it in the
	// stale tier until overwritten.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from both tiers.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}
