package retrydb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

func TestIsContention(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"sentinel", fmt.Errorf("store: %w", ErrContention), true},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"constraint violation", &pq.Error{Code: "23505"}, false},
	}

	for _, tc := range cases {
		if got := IsContention(tc.err); got != tc.want {
			t.Errorf("%s: IsContention = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), zap.NewNop(), "test-op", func(context.Context) error {
		calls++
		if calls < 3 {
			return ErrContention
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnNonTransientError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), zap.NewNop(), "test-op", func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), zap.NewNop(), "test-op", func(context.Context) error {
		calls++
		return ErrContention
	})
	if !errors.Is(err, ErrContention) {
		t.Fatalf("expected ErrContention, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, zap.NewNop(), "test-op", func(context.Context) error {
		return ErrContention
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
