// Package leaderboard observes ledger credits and announces when an
// account overtakes others on the balance leaderboard. It is read-only
// with respect to wager and ledger state.
package leaderboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/announce"
	"github.com/tbarret/wagerbook/internal/ledger"
)

type Notifier struct {
	ledger    ledger.Ledger
	publisher announce.Publisher
	logger    *zap.Logger
}

func NewNotifier(l ledger.Ledger, pub announce.Publisher, logger *zap.Logger) *Notifier {
	return &Notifier{ledger: l, publisher: pub, logger: logger}
}

// ObserveCredit diffs the account's rank before and after a credit and
// publishes a pass event when it overtook at least one other account.
// Failures are logged and swallowed; this path never blocks settlement.
func (n *Notifier) ObserveCredit(ctx context.Context, accountID, beforeCents, afterCents int64) {
	snapshot, err := n.ledger.Snapshot(ctx)
	if err != nil {
		n.logger.Warn("leaderboard-snapshot-failed", zap.Error(err))
		return
	}

	rankBefore, rankAfter, passed := rankDiff(snapshot, accountID, beforeCents, afterCents)
	if passed == 0 {
		return
	}

	e := announce.NewEvent(announce.KindLeaderboard)
	e.AccountID = accountID
	e.Result = fmt.Sprintf("rank %d -> %d", rankBefore, rankAfter)

	if err := n.publisher.Publish(ctx, e); err != nil {
		n.logger.Warn("leaderboard-publish-failed",
			zap.Int64("account_id", accountID),
			zap.Error(err))
		return
	}

	PassesTotal.Inc()
	n.logger.Info("leaderboard-pass",
		zap.Int64("account_id", accountID),
		zap.Int("rank_before", rankBefore),
		zap.Int("rank_after", rankAfter),
		zap.Int("accounts_passed", passed))
}

// rankDiff computes 1-based ranks against the snapshot. Rank is one plus
// the number of other accounts holding a strictly larger balance; the
// accounts passed are those sitting above beforeCents but not above
// afterCents.
func rankDiff(snapshot []ledger.AccountBalance, accountID, beforeCents, afterCents int64) (rankBefore, rankAfter, passed int) {
	rankBefore, rankAfter = 1, 1
	for _, ab := range snapshot {
		if ab.AccountID == accountID {
			continue
		}
		if ab.BalanceCents > beforeCents {
			rankBefore++
		}
		if ab.BalanceCents > afterCents {
			rankAfter++
		}
	}
	passed = rankBefore - rankAfter
	return rankBefore, rankAfter, passed
}
