package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/repo"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

type stubSubs struct {
	subs []repo.Subscription
}

func (s *stubSubs) ListSubscriptionsByBet(ctx context.Context, betID string) ([]repo.Subscription, error) {
	return s.subs, nil
}

func sampleUpdate() events.BetLiveUpdated {
	one, zero := 1, 0
	return events.BetLiveUpdated{
		Type:  events.TypeBetLiveUpdated,
		BetID: "bet-1",
		Bet: events.TrackedBet{
			ID: "bet-1",
			Selections: []events.BetSelection{
				{
					HomeTeam: "Arsenal",
					AwayTeam: "Chelsea",
					Live: &events.LiveInfo{
						HomeScore: &one,
						AwayScore: &zero,
						Status:    events.StatusInPlay,
					},
				},
			},
		},
	}
}

func TestNotify_Webhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	svc := NewService(zap.NewNop(), &stubSubs{subs: []repo.Subscription{
		{BetID: "bet-1", Channel: "webhook", Target: srv.URL},
	}}, "")

	if err := svc.Notify(context.Background(), sampleUpdate()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got["subject"] != "Bet update: bet-1" {
		t.Errorf("subject = %q", got["subject"])
	}
	if !strings.Contains(got["message"], "Arsenal vs Chelsea: 1 x 0") {
		t.Errorf("message = %q", got["message"])
	}
	if got["timestamp"] == "" {
		t.Error("timestamp missing")
	}
}

func TestNotify_AllChannelsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	svc := NewService(zap.NewNop(), &stubSubs{subs: []repo.Subscription{
		{BetID: "bet-1", Channel: "webhook", Target: srv.URL},
	}}, "")

	if err := svc.Notify(context.Background(), sampleUpdate()); err == nil {
		t.Fatal("expected error when every channel fails")
	}
}

func TestNotify_NoSubscriptionsIsNoop(t *testing.T) {
	svc := NewService(zap.NewNop(), &stubSubs{}, "")

	if err := svc.Notify(context.Background(), sampleUpdate()); err != nil {
		t.Fatalf("notify without subscriptions must be a no-op, got %v", err)
	}
}

func TestNotify_ConsoleNeverFails(t *testing.T) {
	svc := NewService(zap.NewNop(), &stubSubs{subs: []repo.Subscription{
		{BetID: "bet-1", Channel: "console", Target: "stdout"},
	}}, "")

	if err := svc.Notify(context.Background(), sampleUpdate()); err != nil {
		t.Fatalf("console channel must not fail: %v", err)
	}
}

func TestFormatUpdate(t *testing.T) {
	subject, message := formatUpdate(sampleUpdate())

	if subject != "Bet update: bet-1" {
		t.Errorf("subject = %q", subject)
	}
	if message != "Arsenal vs Chelsea: 1 x 0 (IN_PLAY)" {
		t.Errorf("message = %q", message)
	}

	// Sem seleções ao vivo cai no texto padrão
	_, empty := formatUpdate(events.BetLiveUpdated{BetID: "x", Bet: events.TrackedBet{}})
	if empty != "no live selections" {
		t.Errorf("empty message = %q", empty)
	}
}
