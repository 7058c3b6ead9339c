// Package retrydb retries database operations that fail with transient
// contention errors (serialization failures, deadlocks).
package retrydb

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrContention marks an error as retryable. Store implementations that
// are not backed by lib/pq can wrap their transient failures with it.
var ErrContention = errors.New("transient contention")

const (
	defaultAttempts = 3
	baseBackoff     = 25 * time.Millisecond
)

// IsContention reports whether err is a transient conflict worth retrying.
func IsContention(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContention) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001": // serialization_failure
			return true
		case "40P01": // deadlock_detected
			return true
		}
	}
	return false
}

// Do runs op, retrying on contention with jittered backoff. Non-transient
// errors return immediately.
func Do(ctx context.Context, logger *zap.Logger, name string, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= defaultAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !IsContention(err) {
			return err
		}

		RetriesTotal.WithLabelValues(name).Inc()
		if attempt == defaultAttempts {
			break
		}

		backoff := baseBackoff * time.Duration(1<<(attempt-1))
		backoff += time.Duration(rand.Int63n(int64(baseBackoff)))
		logger.Warn("retrying-db-operation",
			zap.String("op", name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	RetriesExhaustedTotal.WithLabelValues(name).Inc()
	return err
}
