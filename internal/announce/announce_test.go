package announce

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(KindWager)
	if e.EventID == uuid.Nil {
		t.Error("expected a non-nil event id")
	}
	if e.Kind != KindWager {
		t.Errorf("expected kind wager, got %s", e.Kind)
	}
	if e.OccurredAt.IsZero() {
		t.Error("expected occurred_at to be stamped")
	}
}

func TestEventJSONOmitsEmptyFields(t *testing.T) {
	e := NewEvent(KindLeaderboard)
	e.AccountID = 7
	e.Result = "entered_top_10"

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["wager_id"]; ok {
		t.Error("wager_id should be omitted for leaderboard events")
	}
	if m["result"] != "entered_top_10" {
		t.Errorf("unexpected result %v", m["result"])
	}
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zap.NewNop())
	defer p.Close()

	e := NewEvent(KindParlay)
	e.AccountID = 3
	e.Result = "won"
	e.PayoutCents = 8000

	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
