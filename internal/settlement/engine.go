// Package settlement drives the reconciliation loop: discover pending
// subjects, fetch definitive verdicts, terminalize wagers and credit
// payouts.
package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/announce"
	"github.com/tbarret/wagerbook/internal/feed"
	"github.com/tbarret/wagerbook/internal/leaderboard"
	"github.com/tbarret/wagerbook/internal/ledger"
	"github.com/tbarret/wagerbook/internal/retrydb"
	"github.com/tbarret/wagerbook/internal/wager"
)

// Config tunes the pass cadence.
type Config struct {
	// PassInterval is the ticker period between passes.
	PassInterval time.Duration
	// FullSweepEvery makes every Nth pass check all pending subjects;
	// other passes only look inside the lead window.
	FullSweepEvery int
	// LeadWindow bounds how far before its close time a subject becomes
	// eligible for quick passes.
	LeadWindow time.Duration
	// MinElapsed is the floor on how long after a sports event's start
	// the engine waits before querying its result.
	MinElapsed time.Duration
	// DefaultDuration is the expected length of a sports event, used to
	// gate result queries.
	DefaultDuration time.Duration
}

type Engine struct {
	cfg       Config
	store     wager.Store
	ledger    ledger.Ledger
	source    VerdictSource
	publisher announce.Publisher
	notifier  *leaderboard.Notifier
	logger    *zap.Logger

	passes int
	now    func() time.Time
}

func NewEngine(cfg Config, store wager.Store, l ledger.Ledger, source VerdictSource,
	publisher announce.Publisher, notifier *leaderboard.Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		ledger:    l,
		source:    source,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Run drives passes until the context is cancelled. The in-flight pass
// is allowed to finish before Run returns.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("settlement-engine-started",
		zap.Duration("pass_interval", e.cfg.PassInterval),
		zap.Int("full_sweep_every", e.cfg.FullSweepEvery))

	ticker := time.NewTicker(e.cfg.PassInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("settlement-engine-stopped")
			return
		case <-ticker.C:
			e.passes++
			full := e.cfg.FullSweepEvery > 0 && e.passes%e.cfg.FullSweepEvery == 0
			e.pass(ctx, full)
		}
	}
}

// RunOnce performs a single full sweep. Used by the settle CLI command.
func (e *Engine) RunOnce(ctx context.Context) {
	e.pass(ctx, true)
}

func (e *Engine) pass(ctx context.Context, full bool) {
	start := e.now()
	passType := "quick"
	if full {
		passType = "full"
	}

	subjects, err := e.store.PendingSubjects(ctx)
	if err != nil {
		e.logger.Error("pending-subjects-failed", zap.Error(err))
		PassErrorsTotal.Inc()
		return
	}

	checked, resolved := 0, 0
	for _, ps := range subjects {
		if ctx.Err() != nil {
			break
		}
		if !e.due(ps, full) {
			continue
		}

		sub, err := wager.ParseSubject(ps.Subject)
		if err != nil {
			e.logger.Warn("malformed-pending-subject", zap.String("subject", ps.Subject), zap.Error(err))
			SubjectErrorsTotal.Inc()
			continue
		}

		// A critically rate-limited provider ends the pass early rather
		// than burning the remaining quota mid-sweep.
		if sub.Kind == wager.KindSports && e.source.QuotaLow() {
			e.logger.Warn("quota-low-aborting-pass", zap.String("pass", passType))
			QuotaAbortsTotal.Inc()
			break
		}

		checked++
		n, err := e.checkSubject(ctx, ps, sub)
		if err != nil {
			// Per-subject isolation: log and move on.
			e.logger.Warn("subject-check-failed",
				zap.String("subject", ps.Subject),
				zap.Error(err))
			SubjectErrorsTotal.Inc()
			continue
		}
		resolved += n
	}

	if full {
		resolved += e.reconcileParlays(ctx)
	}

	PassesTotal.WithLabelValues(passType).Inc()
	PassDurationSeconds.Observe(e.now().Sub(start).Seconds())
	e.logger.Info("settlement-pass-complete",
		zap.String("pass", passType),
		zap.Int("pending_subjects", len(subjects)),
		zap.Int("checked", checked),
		zap.Int("resolved", resolved),
		zap.Duration("took", e.now().Sub(start)))
}

// due decides whether a subject is worth a provider call this pass.
func (e *Engine) due(ps wager.PendingSubject, full bool) bool {
	now := e.now()

	if !full {
		// Quick passes only look inside the lead window; subjects with
		// an unknown close time wait for the next full sweep.
		if ps.CloseAt.IsZero() || ps.CloseAt.Sub(now) > e.cfg.LeadWindow {
			return false
		}
	}

	// Sports results cannot be final until most of the event has been
	// played, so don't waste the call.
	sub, err := wager.ParseSubject(ps.Subject)
	if err == nil && sub.Kind == wager.KindSports && !ps.CloseAt.IsZero() {
		wait := 3 * e.cfg.DefaultDuration / 4
		if wait < e.cfg.MinElapsed {
			wait = e.cfg.MinElapsed
		}
		if now.Before(ps.CloseAt.Add(wait)) {
			return false
		}
	}

	return true
}

func (e *Engine) checkSubject(ctx context.Context, ps wager.PendingSubject, sub wager.Subject) (int, error) {
	nearClose := !ps.CloseAt.IsZero() && e.now().Sub(ps.CloseAt) > -e.cfg.LeadWindow

	v, err := e.source.Verdict(ctx, ps.Subject, nearClose)
	if err != nil {
		return 0, err
	}
	if !v.Completed {
		// In-progress state is not resolving information.
		return 0, nil
	}

	resolved, err := e.resolveSingles(ctx, ps.Subject, v)
	if err != nil {
		return resolved, err
	}
	n, err := e.resolveLegs(ctx, ps.Subject, v)
	return resolved + n, err
}

// resolveSingles terminalizes every pending single wager on the subject
// and credits payouts for the ones the conditional write applied to.
func (e *Engine) resolveSingles(ctx context.Context, subject string, v feed.Verdict) (int, error) {
	wagers, err := e.store.WagersBySubject(ctx, subject, wager.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("list wagers: %w", err)
	}

	resolved := 0
	for _, w := range wagers {
		change, ok := w.ApplyVerdict(subject, v)
		if !ok {
			continue
		}

		err := retrydb.Do(ctx, e.logger, "settle-wager", func(ctx context.Context) error {
			applied, err := e.store.TerminalizeWager(ctx, w.ID, change.Status, change.PayoutCents)
			if err != nil {
				return err
			}
			if !applied {
				// Someone else settled or cancelled it since we listed.
				return nil
			}

			e.creditAndAnnounce(ctx, announce.KindWager, w.ID, w.AccountID, subject, change, singleReason(change.Status))
			resolved++
			return nil
		})
		if err != nil {
			return resolved, err
		}
	}
	return resolved, nil
}

// resolveLegs terminalizes matching parlay legs, then re-aggregates each
// touched parent. A lost leg closes the parlay immediately.
func (e *Engine) resolveLegs(ctx context.Context, subject string, v feed.Verdict) (int, error) {
	legs, err := e.store.LegsBySubject(ctx, subject, wager.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("list legs: %w", err)
	}

	resolved := 0
	for _, leg := range legs {
		outcome := wager.LegOutcome(leg.Pick, v)

		err := retrydb.Do(ctx, e.logger, "settle-leg", func(ctx context.Context) error {
			applied, err := e.store.TerminalizeLeg(ctx, leg.ID, outcome)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}

			parlay, err := e.store.ParlayByID(ctx, leg.ParlayID)
			if err != nil {
				return fmt.Errorf("load parlay %d: %w", leg.ParlayID, err)
			}

			change, ok := parlay.Aggregate()
			if !ok {
				return nil
			}

			applied, err = e.store.TerminalizeParlay(ctx, parlay.ID, change.Status, change.PayoutCents)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}

			e.creditAndAnnounce(ctx, announce.KindParlay, parlay.ID, parlay.AccountID, subject, change, parlayReason(change.Status))
			resolved++
			return nil
		})
		if err != nil {
			return resolved, err
		}
	}
	return resolved, nil
}

// reconcileParlays finishes pending parlays whose legs already decided
// the outcome. Normally the parent is terminalized in the same step as
// the deciding leg; a crash or storage failure between the two writes
// leaves the parent behind with no pending legs to trigger
// re-aggregation, so full sweeps pick those up here. Needs no provider
// calls: the legs carry the verdicts.
func (e *Engine) reconcileParlays(ctx context.Context) int {
	parlays, err := e.store.ResolvableParlays(ctx)
	if err != nil {
		e.logger.Error("resolvable-parlays-failed", zap.Error(err))
		PassErrorsTotal.Inc()
		return 0
	}

	resolved := 0
	for _, parlay := range parlays {
		if ctx.Err() != nil {
			break
		}
		change, ok := parlay.Aggregate()
		if !ok {
			continue
		}

		err := retrydb.Do(ctx, e.logger, "reconcile-parlay", func(ctx context.Context) error {
			applied, err := e.store.TerminalizeParlay(ctx, parlay.ID, change.Status, change.PayoutCents)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}

			e.creditAndAnnounce(ctx, announce.KindParlay, parlay.ID, parlay.AccountID, "", change, parlayReason(change.Status))
			resolved++
			return nil
		})
		if err != nil {
			e.logger.Warn("parlay-reconcile-failed",
				zap.Int64("parlay_id", parlay.ID),
				zap.Error(err))
			SubjectErrorsTotal.Inc()
		}
	}
	return resolved
}

// creditAndAnnounce pairs the payout credit with its announcement and
// the leaderboard check. Announcement failures are logged, never rolled
// back.
func (e *Engine) creditAndAnnounce(ctx context.Context, kind announce.Kind, id, accountID int64,
	subject string, change wager.StatusChange, reason ledger.Reason) {
	if change.PayoutCents > 0 {
		ref := fmt.Sprintf("%s:%d", kind, id)
		after, err := e.ledger.Credit(ctx, accountID, change.PayoutCents, reason, ref)
		if err != nil {
			e.logger.Error("payout-credit-failed",
				zap.String("kind", string(kind)),
				zap.Int64("id", id),
				zap.Int64("account_id", accountID),
				zap.Error(err))
		} else if e.notifier != nil {
			e.notifier.ObserveCredit(ctx, accountID, after-change.PayoutCents, after)
		}
	}

	ResolutionsTotal.WithLabelValues(string(kind), string(change.Status)).Inc()

	event := announce.NewEvent(kind)
	event.WagerID = id
	event.AccountID = accountID
	event.Result = string(change.Status)
	event.PayoutCents = change.PayoutCents
	event.Subject = subject
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("announcement-failed",
			zap.String("kind", string(kind)),
			zap.Int64("id", id),
			zap.Error(err))
	}
}

func singleReason(s wager.Status) ledger.Reason {
	if s == wager.StatusPush {
		return ledger.ReasonRefund
	}
	return ledger.ReasonPayout
}

func parlayReason(s wager.Status) ledger.Reason {
	if s == wager.StatusPush {
		return ledger.ReasonParlayRefund
	}
	return ledger.ReasonParlayPayout
}
