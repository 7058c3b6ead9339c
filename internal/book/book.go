// Package book is the placement boundary: it pairs ledger debits with
// wager-store records and owns the cancellation rules.
package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/ledger"
	"github.com/tbarret/wagerbook/internal/retrydb"
	"github.com/tbarret/wagerbook/internal/wager"
	"github.com/tbarret/wagerbook/pkg/odds"
)

var (
	// ErrAlreadyResolved rejects a cancellation of a settled wager.
	ErrAlreadyResolved = errors.New("wager already resolved")
	// ErrEventStarted rejects a cancellation once the underlying event
	// is underway.
	ErrEventStarted = errors.New("event already started")
)

// StartChecker reports whether a subject's underlying event has begun.
// Used as the check-then-act guard on cancellation.
type StartChecker interface {
	Started(ctx context.Context, subject string) (bool, error)
}

type Service struct {
	ledger ledger.Ledger
	store  wager.Store
	starts StartChecker
	logger *zap.Logger
	now    func() time.Time
}

func NewService(l ledger.Ledger, store wager.Store, starts StartChecker, logger *zap.Logger) *Service {
	return &Service{
		ledger: l,
		store:  store,
		starts: starts,
		logger: logger,
		now:    time.Now,
	}
}

// PlaceWagerRequest carries the caller's intent for a single wager.
type PlaceWagerRequest struct {
	AccountID  int64
	Kind       wager.Kind
	Subject    string
	Pick       string
	StakeCents int64
	Odds       float64
	CloseAt    time.Time
}

// PlaceWager debits the stake and records a pending wager. The debit is
// compensated if the record cannot be written.
func (s *Service) PlaceWager(ctx context.Context, req PlaceWagerRequest) (*wager.Wager, error) {
	if req.StakeCents <= 0 {
		return nil, wager.ErrInvalidStake
	}
	if req.Odds < 1.0 {
		return nil, wager.ErrInvalidOdds
	}
	if _, err := wager.ParseSubject(req.Subject); err != nil {
		return nil, err
	}

	ref := uuid.NewString()
	w := &wager.Wager{
		AccountID:  req.AccountID,
		Kind:       req.Kind,
		Subject:    req.Subject,
		Pick:       req.Pick,
		StakeCents: req.StakeCents,
		Odds:       req.Odds,
		CloseAt:    req.CloseAt,
	}

	// The debit lands exactly once; only the record write retries. If it
	// never lands, a single compensating credit undoes the debit.
	if _, err := s.ledger.Debit(ctx, req.AccountID, req.StakeCents, ledger.ReasonStake, ref); err != nil {
		return nil, err
	}
	err := retrydb.Do(ctx, s.logger, "place-wager", func(ctx context.Context) error {
		return s.store.CreateWager(ctx, w)
	})
	if err != nil {
		s.compensate(ctx, req.AccountID, req.StakeCents, ledger.ReasonRefund, ref)
		return nil, err
	}

	PlacementsTotal.WithLabelValues("wager").Inc()
	s.logger.Info("wager-placed",
		zap.Int64("wager_id", w.ID),
		zap.Int64("account_id", w.AccountID),
		zap.String("subject", w.Subject),
		zap.Int64("stake_cents", w.StakeCents),
		zap.Float64("odds", w.Odds))
	return w, nil
}

// PlaceParlayRequest carries the caller's intent for a parlay ticket.
type PlaceParlayRequest struct {
	AccountID  int64
	StakeCents int64
	Legs       []wager.Leg
}

// PlaceParlay debits the stake and records a parlay. The combined odds
// are the product of the leg odds, locked at creation and never
// recomputed from live prices.
func (s *Service) PlaceParlay(ctx context.Context, req PlaceParlayRequest) (*wager.Parlay, error) {
	if len(req.Legs) < 2 {
		return nil, wager.ErrTooFewLegs
	}
	if req.StakeCents <= 0 {
		return nil, wager.ErrInvalidStake
	}

	legOdds := make([]float64, 0, len(req.Legs))
	for _, leg := range req.Legs {
		if leg.Odds < 1.0 {
			return nil, wager.ErrInvalidOdds
		}
		if _, err := wager.ParseSubject(leg.Subject); err != nil {
			return nil, err
		}
		legOdds = append(legOdds, leg.Odds)
	}

	ref := uuid.NewString()
	p := &wager.Parlay{
		AccountID:    req.AccountID,
		StakeCents:   req.StakeCents,
		CombinedOdds: odds.CombinedOdds(legOdds),
		Legs:         req.Legs,
	}

	if _, err := s.ledger.Debit(ctx, req.AccountID, req.StakeCents, ledger.ReasonParlayStake, ref); err != nil {
		return nil, err
	}
	err := retrydb.Do(ctx, s.logger, "place-parlay", func(ctx context.Context) error {
		return s.store.CreateParlay(ctx, p)
	})
	if err != nil {
		s.compensate(ctx, req.AccountID, req.StakeCents, ledger.ReasonParlayRefund, ref)
		return nil, err
	}

	PlacementsTotal.WithLabelValues("parlay").Inc()
	s.logger.Info("parlay-placed",
		zap.Int64("parlay_id", p.ID),
		zap.Int64("account_id", p.AccountID),
		zap.Int("legs", len(p.Legs)),
		zap.Float64("combined_odds", p.CombinedOdds))
	return p, nil
}

// CancelWager voids a pending wager and refunds the stake. Allowed only
// while the wager is pending and the underlying event has not started;
// the conditional terminal write closes the race against settlement.
func (s *Service) CancelWager(ctx context.Context, accountID, wagerID int64) error {
	w, err := s.store.WagerByID(ctx, wagerID)
	if err != nil {
		return err
	}
	if w.AccountID != accountID {
		return wager.ErrNotFound
	}
	if w.Status.Terminal() {
		return ErrAlreadyResolved
	}

	if !w.CloseAt.IsZero() && !s.now().Before(w.CloseAt) {
		return ErrEventStarted
	}
	started, err := s.starts.Started(ctx, w.Subject)
	if err != nil {
		// Refuse rather than risk voiding an event already underway.
		return fmt.Errorf("verify event start: %w", err)
	}
	if started {
		return ErrEventStarted
	}

	applied, err := s.store.TerminalizeWager(ctx, wagerID, wager.StatusCancelled, 0)
	if err != nil {
		return err
	}
	if !applied {
		// Settlement won the race since we looked.
		return ErrAlreadyResolved
	}

	ref := fmt.Sprintf("cancel:wager:%d", wagerID)
	if _, err := s.ledger.Credit(ctx, accountID, w.StakeCents, ledger.ReasonRefund, ref); err != nil {
		return fmt.Errorf("refund cancelled wager %d: %w", wagerID, err)
	}

	CancellationsTotal.Inc()
	s.logger.Info("wager-cancelled",
		zap.Int64("wager_id", wagerID),
		zap.Int64("account_id", accountID),
		zap.Int64("refund_cents", w.StakeCents))
	return nil
}

// ListPending returns the account's unsettled wagers and parlays.
func (s *Service) ListPending(ctx context.Context, accountID int64) ([]*wager.Wager, []*wager.Parlay, error) {
	ws, err := s.store.WagersByAccount(ctx, accountID, true)
	if err != nil {
		return nil, nil, err
	}
	ps, err := s.store.ParlaysByAccount(ctx, accountID, true)
	if err != nil {
		return nil, nil, err
	}
	return ws, ps, nil
}

// ListHistory returns every wager and parlay the account has placed.
func (s *Service) ListHistory(ctx context.Context, accountID int64) ([]*wager.Wager, []*wager.Parlay, error) {
	ws, err := s.store.WagersByAccount(ctx, accountID, false)
	if err != nil {
		return nil, nil, err
	}
	ps, err := s.store.ParlaysByAccount(ctx, accountID, false)
	if err != nil {
		return nil, nil, err
	}
	return ws, ps, nil
}

// BalanceOf returns the account's current balance in cents.
func (s *Service) BalanceOf(ctx context.Context, accountID int64) (int64, error) {
	return s.ledger.Balance(ctx, accountID)
}

func (s *Service) compensate(ctx context.Context, accountID, amountCents int64, reason ledger.Reason, ref string) {
	if _, err := s.ledger.Credit(ctx, accountID, amountCents, reason, ref); err != nil {
		s.logger.Error("compensating-credit-failed",
			zap.Int64("account_id", accountID),
			zap.Int64("amount_cents", amountCents),
			zap.String("ref", ref),
			zap.Error(err))
	}
}
