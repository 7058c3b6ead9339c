package settlement

import (
	"context"
	"fmt"

	"github.com/tbarret/wagerbook/internal/feed"
	"github.com/tbarret/wagerbook/internal/wager"
)

// VerdictSource answers "how did this subject resolve" for the engine.
// A returned verdict with Completed=false is not resolving information.
type VerdictSource interface {
	Verdict(ctx context.Context, subject string, nearClose bool) (feed.Verdict, error)
	QuotaLow() bool
}

// FeedVerdictSource resolves subjects against the two providers. The
// clients cache through the TTL tier themselves, so multiple wagers on
// one subject share a single upstream call per freshness window.
type FeedVerdictSource struct {
	sports *feed.SportsClient
	market *feed.MarketClient
}

func NewFeedVerdictSource(sports *feed.SportsClient, market *feed.MarketClient) *FeedVerdictSource {
	return &FeedVerdictSource{sports: sports, market: market}
}

func (s *FeedVerdictSource) QuotaLow() bool {
	return s.sports.QuotaLow()
}

func (s *FeedVerdictSource) Verdict(ctx context.Context, subject string, nearClose bool) (feed.Verdict, error) {
	sub, err := wager.ParseSubject(subject)
	if err != nil {
		return feed.Verdict{}, err
	}

	switch sub.Kind {
	case wager.KindSports:
		result, err := s.sports.Result(ctx, sub.Sport, sub.EventID)
		if err != nil {
			return feed.Verdict{}, err
		}
		v, _ := feed.SportsVerdict(subject, result)
		return v, nil
	case wager.KindMarket:
		contract, err := s.market.Contract(ctx, sub.Ticker, nearClose)
		if err != nil {
			return feed.Verdict{}, err
		}
		v, _ := feed.ContractVerdict(subject, contract)
		return v, nil
	default:
		return feed.Verdict{}, fmt.Errorf("unknown subject kind %q", sub.Kind)
	}
}
