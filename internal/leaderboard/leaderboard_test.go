package leaderboard

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/announce"
	"github.com/tbarret/wagerbook/internal/ledger"
)

type capturePublisher struct {
	events []announce.Event
}

func (c *capturePublisher) Publish(_ context.Context, e announce.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func TestRankDiff(t *testing.T) {
	snapshot := []ledger.AccountBalance{
		{AccountID: 1, BalanceCents: 100000},
		{AccountID: 2, BalanceCents: 50000},
		{AccountID: 3, BalanceCents: 30000},
		{AccountID: 4, BalanceCents: 42000},
	}

	// Account 4 climbs from 20000 to 42000, passing account 3 only.
	before, after, passed := rankDiff(snapshot, 4, 20000, 42000)
	if before != 4 || after != 3 || passed != 1 {
		t.Errorf("rankDiff = (%d, %d, %d), want (4, 3, 1)", before, after, passed)
	}

	// No movement when the credit does not cross anyone.
	before, after, passed = rankDiff(snapshot, 3, 30000, 31000)
	if passed != 0 {
		t.Errorf("expected no pass, got (%d, %d, %d)", before, after, passed)
	}
}

func TestObserveCredit_PublishesOnPass(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger(0, zap.NewNop())

	_, _ = l.Credit(ctx, 1, 100000, ledger.ReasonInitial, "seed")
	_, _ = l.Credit(ctx, 2, 50000, ledger.ReasonInitial, "seed")
	before, _ := l.Credit(ctx, 3, 20000, ledger.ReasonInitial, "seed")

	after, err := l.Credit(ctx, 3, 40000, ledger.ReasonPayout, "wager:1")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}

	pub := &capturePublisher{}
	n := NewNotifier(l, pub, zap.NewNop())
	n.ObserveCredit(ctx, 3, before, after)

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.Kind != announce.KindLeaderboard || e.AccountID != 3 {
		t.Errorf("unexpected event %+v", e)
	}
	if e.Result != "rank 3 -> 2" {
		t.Errorf("unexpected result %q", e.Result)
	}
}

func TestObserveCredit_SilentWhenNoPass(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger(0, zap.NewNop())

	_, _ = l.Credit(ctx, 1, 100000, ledger.ReasonInitial, "seed")
	before, _ := l.Credit(ctx, 2, 10000, ledger.ReasonInitial, "seed")
	after, _ := l.Credit(ctx, 2, 5000, ledger.ReasonPayout, "wager:2")

	pub := &capturePublisher{}
	n := NewNotifier(l, pub, zap.NewNop())
	n.ObserveCredit(ctx, 2, before, after)

	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %+v", pub.events)
	}
}
