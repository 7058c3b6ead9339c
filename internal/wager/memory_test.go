package wager

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestStore() *MemoryStore {
	logger, _ := zap.NewDevelopment()
	return NewMemoryStore(logger)
}

func TestMemoryStore_CreateWagerValidation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	err := s.CreateWager(ctx, &Wager{AccountID: 1, Subject: "s1", Pick: "home", StakeCents: 0, Odds: 2.0})
	if !errors.Is(err, ErrInvalidStake) {
		t.Errorf("expected ErrInvalidStake, got %v", err)
	}

	err = s.CreateWager(ctx, &Wager{AccountID: 1, Subject: "s1", Pick: "home", StakeCents: 100, Odds: 0.9})
	if !errors.Is(err, ErrInvalidOdds) {
		t.Errorf("expected ErrInvalidOdds, got %v", err)
	}
}

func TestMemoryStore_TerminalizeIsConditional(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	w := &Wager{AccountID: 1, Subject: "s1", Pick: "home", StakeCents: 5000, Odds: 2.5}
	if err := s.CreateWager(ctx, w); err != nil {
		t.Fatalf("create: %v", err)
	}

	applied, err := s.TerminalizeWager(ctx, w.ID, StatusWon, 12500)
	if err != nil || !applied {
		t.Fatalf("first terminalize: applied=%v err=%v", applied, err)
	}

	// Re-entering settlement for an already resolved wager must be a
	// no-op, not a second application.
	applied, err = s.TerminalizeWager(ctx, w.ID, StatusWon, 12500)
	if err != nil {
		t.Fatalf("second terminalize: %v", err)
	}
	if applied {
		t.Error("second terminalize must not apply")
	}

	got, _ := s.WagerByID(ctx, w.ID)
	if got.Status != StatusWon || got.PayoutCents != 12500 {
		t.Errorf("unexpected final state %+v", got)
	}
	if got.SettledAt == nil {
		t.Error("expected settled_at to be set")
	}
}

func TestMemoryStore_ParlayRequiresTwoLegs(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	err := s.CreateParlay(ctx, &Parlay{
		AccountID:  1,
		StakeCents: 2000,
		Legs:       []Leg{{Subject: "s1", Pick: "home", Odds: 1.91}},
	})
	if !errors.Is(err, ErrTooFewLegs) {
		t.Errorf("expected ErrTooFewLegs, got %v", err)
	}
}

func TestMemoryStore_PendingSubjects(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	early := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)

	// Same subject across both families; the earliest close time wins.
	if err := s.CreateWager(ctx, &Wager{AccountID: 1, Subject: "s1", Pick: "home", StakeCents: 100, Odds: 2.0, CloseAt: late}); err != nil {
		t.Fatalf("create wager: %v", err)
	}
	err := s.CreateParlay(ctx, &Parlay{
		AccountID:    1,
		StakeCents:   2000,
		CombinedOdds: 4.0,
		Legs: []Leg{
			{Subject: "s1", Pick: "home", Odds: 2.0, CloseAt: early},
			{Subject: "s2", Pick: "away", Odds: 2.0},
		},
	})
	if err != nil {
		t.Fatalf("create parlay: %v", err)
	}

	subjects, err := s.PendingSubjects(ctx)
	if err != nil {
		t.Fatalf("pending subjects: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("expected 2 distinct subjects, got %d", len(subjects))
	}

	if subjects[0].Subject != "s1" || !subjects[0].CloseAt.Equal(early) {
		t.Errorf("expected s1 with earliest close %v, got %+v", early, subjects[0])
	}
	if subjects[1].Subject != "s2" || !subjects[1].CloseAt.IsZero() {
		t.Errorf("expected s2 with unknown close, got %+v", subjects[1])
	}
}

func TestMemoryStore_PendingSubjectsExcludeSettled(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	w := &Wager{AccountID: 1, Subject: "s1", Pick: "home", StakeCents: 100, Odds: 2.0}
	_ = s.CreateWager(ctx, w)
	_, _ = s.TerminalizeWager(ctx, w.ID, StatusLost, 0)

	subjects, _ := s.PendingSubjects(ctx)
	if len(subjects) != 0 {
		t.Errorf("settled wagers must not surface pending subjects, got %+v", subjects)
	}
}

func TestMemoryStore_CancelledNotInPendingLists(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	w := &Wager{AccountID: 1, Subject: "s1", Pick: "home", StakeCents: 100, Odds: 2.0}
	_ = s.CreateWager(ctx, w)
	_, _ = s.TerminalizeWager(ctx, w.ID, StatusCancelled, 0)

	pending, _ := s.WagersByAccount(ctx, 1, true)
	if len(pending) != 0 {
		t.Errorf("cancelled wager still listed as pending: %+v", pending)
	}

	all, _ := s.WagersByAccount(ctx, 1, false)
	if len(all) != 1 {
		t.Errorf("cancelled wager must remain in history, got %d", len(all))
	}
}

func TestMemoryStore_ResolvableParlays(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	twoLegs := func(st1, st2 Status) *Parlay {
		p := &Parlay{
			AccountID:    1,
			StakeCents:   2000,
			CombinedOdds: 4.0,
			Legs: []Leg{
				{Subject: "s1", Pick: "home", Odds: 2.0},
				{Subject: "s2", Pick: "away", Odds: 2.0},
			},
		}
		if err := s.CreateParlay(ctx, p); err != nil {
			t.Fatalf("create parlay: %v", err)
		}
		if st1 != StatusPending {
			_, _ = s.TerminalizeLeg(ctx, p.Legs[0].ID, st1)
		}
		if st2 != StatusPending {
			_, _ = s.TerminalizeLeg(ctx, p.Legs[1].ID, st2)
		}
		return p
	}

	allWon := twoLegs(StatusWon, StatusWon)
	_ = twoLegs(StatusWon, StatusPending)
	lostOpen := twoLegs(StatusLost, StatusPending)
	closed := twoLegs(StatusWon, StatusWon)
	_, _ = s.TerminalizeParlay(ctx, closed.ID, StatusWon, 8000)

	got, err := s.ResolvableParlays(ctx)
	if err != nil {
		t.Fatalf("resolvable parlays: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resolvable parlays, got %d", len(got))
	}
	if got[0].ID != allWon.ID || got[1].ID != lostOpen.ID {
		t.Errorf("expected parlays %d and %d, got %+v", allWon.ID, lostOpen.ID, got)
	}
}

func TestMemoryStore_LegsBySubject(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_ = s.CreateParlay(ctx, &Parlay{
		AccountID:    1,
		StakeCents:   2000,
		CombinedOdds: 4.0,
		Legs: []Leg{
			{Subject: "s1", Pick: "home", Odds: 2.0},
			{Subject: "s2", Pick: "away", Odds: 2.0},
		},
	})

	legs, err := s.LegsBySubject(ctx, "s1", StatusPending)
	if err != nil {
		t.Fatalf("legs by subject: %v", err)
	}
	if len(legs) != 1 || legs[0].Subject != "s1" {
		t.Errorf("unexpected legs %+v", legs)
	}
}
