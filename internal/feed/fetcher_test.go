package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeCache gives tests direct control over fresh/stale tiers.
type fakeCache struct {
	fresh map[string]interface{}
	stale map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{fresh: map[string]interface{}{}, stale: map[string]interface{}{}}
}

func (f *fakeCache) Get(key string) (interface{}, bool) {
	v, ok := f.fresh[key]
	return v, ok
}

func (f *fakeCache) GetStale(key string) (interface{}, bool) {
	v, ok := f.stale[key]
	return v, ok
}

func (f *fakeCache) Set(key string, value interface{}, _ time.Duration) bool {
	f.fresh[key] = value
	f.stale[key] = value
	return true
}

func (f *fakeCache) Delete(key string) {
	delete(f.fresh, key)
	delete(f.stale, key)
}

func (f *fakeCache) Clear() {
	f.fresh = map[string]interface{}{}
	f.stale = map[string]interface{}{}
}

func (f *fakeCache) Close() {}

func TestFetcher_FreshHitSkipsFill(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	c := newFakeCache()
	c.Set("k", []byte("cached"), time.Minute)

	fetcher := NewFetcher(c, logger)
	calls := 0

	payload, stale, err := fetcher.Fetch(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		calls++
		return []byte("fresh"), nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no fill call on fresh hit, got %d", calls)
	}
	if stale {
		t.Error("fresh hit reported as stale")
	}
	if string(payload) != "cached" {
		t.Errorf("got %q, want cached", payload)
	}
}

func TestFetcher_MissFillsAndStores(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	c := newFakeCache()
	fetcher := NewFetcher(c, logger)

	payload, stale, err := fetcher.Fetch(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stale {
		t.Error("filled payload reported as stale")
	}
	if string(payload) != "fresh" {
		t.Errorf("got %q, want fresh", payload)
	}
	if _, ok := c.Get("k"); !ok {
		t.Error("expected payload stored after fill")
	}
}

func TestFetcher_FillFailureServesStale(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	c := newFakeCache()
	c.stale["k"] = []byte("old")

	fetcher := NewFetcher(c, logger)

	payload, stale, err := fetcher.Fetch(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if !stale {
		t.Error("expected stale=true")
	}
	if string(payload) != "old" {
		t.Errorf("got %q, want old", payload)
	}
}

func TestFetcher_FillFailureWithoutStalePropagates(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	fetcher := NewFetcher(newFakeCache(), logger)

	_, _, err := fetcher.Fetch(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}
