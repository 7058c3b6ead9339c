package book

import (
	"context"
	"fmt"
	"time"

	"github.com/tbarret/wagerbook/internal/feed"
	"github.com/tbarret/wagerbook/internal/wager"
)

// FeedStartChecker answers start checks through the providers. The
// short score/contract TTLs keep the answer fresh enough that a
// cancellation cannot slip in long after an event went live.
type FeedStartChecker struct {
	sports *feed.SportsClient
	market *feed.MarketClient
	now    func() time.Time
}

func NewFeedStartChecker(sports *feed.SportsClient, market *feed.MarketClient) *FeedStartChecker {
	return &FeedStartChecker{sports: sports, market: market, now: time.Now}
}

func (f *FeedStartChecker) Started(ctx context.Context, subject string) (bool, error) {
	sub, err := wager.ParseSubject(subject)
	if err != nil {
		return false, err
	}

	switch sub.Kind {
	case wager.KindSports:
		result, err := f.sports.Result(ctx, sub.Sport, sub.EventID)
		if err != nil {
			return false, err
		}
		return result.Started, nil
	case wager.KindMarket:
		contract, err := f.market.Contract(ctx, sub.Ticker, false)
		if err != nil {
			return false, err
		}
		if contract.Settled() {
			return true, nil
		}
		return !contract.CloseTime.IsZero() && !f.now().Before(contract.CloseTime), nil
	default:
		return false, fmt.Errorf("unknown subject kind %q", sub.Kind)
	}
}
