package feed

import "sync"

// Quota tracks the sports provider's remaining request allowance, as
// reported by its rate-limit response headers. The settlement engine
// short-circuits a pass when the remaining quota drops below the floor.
type Quota struct {
	mu        sync.RWMutex
	remaining float64
	known     bool
	floor     float64
}

// NewQuota creates a tracker with the given safety floor.
func NewQuota(floor float64) *Quota {
	return &Quota{floor: floor}
}

// Update records the latest remaining-request count.
func (q *Quota) Update(remaining float64) {
	q.mu.Lock()
	q.remaining = remaining
	q.known = true
	q.mu.Unlock()

	QuotaRemaining.Set(remaining)
}

// Remaining returns the last known remaining count and whether one has
// been observed yet.
func (q *Quota) Remaining() (float64, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.remaining, q.known
}

// Low reports whether the provider is critically rate limited. An
// unknown quota is not low: the first request of a process reveals it.
func (q *Quota) Low() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.known && q.remaining < q.floor
}
