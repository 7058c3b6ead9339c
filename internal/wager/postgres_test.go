package wager

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreFromDB(db, zap.NewNop()), mock
}

func TestPostgresStore_CreateWager(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO wagers`).
		WithArgs(int64(7), "sports", "sports:nba:evt1:h2h", "home",
			int64(5000), 2.5, "pending", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	w := &Wager{
		AccountID:  7,
		Kind:       KindSports,
		Subject:    "sports:nba:evt1:h2h",
		Pick:       "home",
		StakeCents: 5000,
		Odds:       2.5,
	}
	if err := store.CreateWager(context.Background(), w); err != nil {
		t.Fatalf("create wager: %v", err)
	}
	if w.ID != 42 {
		t.Errorf("expected returned id 42, got %d", w.ID)
	}
	if w.Status != StatusPending {
		t.Errorf("expected pending status, got %s", w.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_TerminalizeWagerApplied(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE wagers`).
		WithArgs(int64(42), "won", int64(12500)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := store.TerminalizeWager(context.Background(), 42, StatusWon, 12500)
	if err != nil {
		t.Fatalf("terminalize: %v", err)
	}
	if !applied {
		t.Error("expected terminalize to apply")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_TerminalizeWagerAlreadySettled(t *testing.T) {
	store, mock := newMockStore(t)

	// The status guard means a second settlement attempt touches no rows.
	mock.ExpectExec(`UPDATE wagers`).
		WithArgs(int64(42), "won", int64(12500)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := store.TerminalizeWager(context.Background(), 42, StatusWon, 12500)
	if err != nil {
		t.Fatalf("terminalize: %v", err)
	}
	if applied {
		t.Error("expected terminalize to skip an already settled wager")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_WagerByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM wagers WHERE id`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "kind", "subject", "pick", "stake_cents",
			"odds", "status", "payout_cents", "close_at", "created_at", "settled_at",
		}))

	_, err := store.WagerByID(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_PendingSubjects(t *testing.T) {
	store, mock := newMockStore(t)

	closeAt := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT subject, MIN\(close_at\)`).
		WillReturnRows(sqlmock.NewRows([]string{"subject", "min"}).
			AddRow("market:KXHIGHNY-26SEP01", nil).
			AddRow("sports:nba:evt1:h2h", closeAt))

	subjects, err := store.PendingSubjects(context.Background())
	if err != nil {
		t.Fatalf("pending subjects: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(subjects))
	}
	if !subjects[0].CloseAt.IsZero() {
		t.Errorf("expected zero close time for unknown close, got %v", subjects[0].CloseAt)
	}
	if !subjects[1].CloseAt.Equal(closeAt) {
		t.Errorf("expected close %v, got %v", closeAt, subjects[1].CloseAt)
	}
}

func TestPostgresStore_ResolvableParlays(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM parlays pa`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "stake_cents", "combined_odds", "status",
			"payout_cents", "created_at", "settled_at",
		}).AddRow(int64(5), int64(1), int64(2000), 4.018, "pending", int64(0), created, nil))
	mock.ExpectQuery(`SELECT .+ FROM parlay_legs WHERE parlay_id`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "parlay_id", "subject", "pick", "odds", "status", "close_at",
		}).
			AddRow(int64(10), int64(5), "s1", "home", 2.05, "won", nil).
			AddRow(int64(11), int64(5), "s2", "home", 1.96, "won", nil))

	parlays, err := store.ResolvableParlays(context.Background())
	if err != nil {
		t.Fatalf("resolvable parlays: %v", err)
	}
	if len(parlays) != 1 || parlays[0].ID != 5 {
		t.Fatalf("expected parlay 5, got %+v", parlays)
	}
	if len(parlays[0].Legs) != 2 || parlays[0].Legs[1].Status != StatusWon {
		t.Errorf("expected both legs loaded, got %+v", parlays[0].Legs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_CreateParlayRollsBackOnLegFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO parlays`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectQuery(`INSERT INTO parlay_legs`).
		WillReturnError(errors.New("leg insert failed"))
	mock.ExpectRollback()

	err := store.CreateParlay(context.Background(), &Parlay{
		AccountID:    1,
		StakeCents:   2000,
		CombinedOdds: 4.0,
		Legs: []Leg{
			{Subject: "s1", Pick: "home", Odds: 2.0},
			{Subject: "s2", Pick: "away", Odds: 2.0},
		},
	})
	if err == nil {
		t.Fatal("expected error from failed leg insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
