package provider

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

type stubProvider struct {
	name string
	live events.Snapshot
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) FetchLive(ctx context.Context) events.Snapshot { return s.live }

func (s stubProvider) FetchSchedule(ctx context.Context) events.Snapshot { return s.live }

func okSnapshot(source string) events.Snapshot {
	return events.NewSnapshot([]events.LiveMatch{
		{EventID: "1", HomeTeam: "A", AwayTeam: "B", Status: events.StatusInPlay, Source: source},
	}, source, time.Now())
}

func failSnapshot(source string) events.Snapshot {
	return events.NewSnapshot(nil, source, time.Now())
}

func TestChain_PrimaryWins(t *testing.T) {
	c := NewChain(zap.NewNop(),
		stubProvider{"primary", okSnapshot("primary")},
		stubProvider{"secondary", okSnapshot("secondary")},
	)

	snap := c.FetchLive(context.Background())
	if snap.Source != "primary" {
		t.Fatalf("expected primary, got %s", snap.Source)
	}
}

func TestChain_FallsBackWhenPrimaryFails(t *testing.T) {
	c := NewChain(zap.NewNop(),
		stubProvider{"primary", failSnapshot(events.SourceError)},
		stubProvider{"secondary", okSnapshot("secondary")},
	)

	snap := c.FetchLive(context.Background())
	if snap.Source != "secondary" {
		t.Fatalf("expected fallback to secondary, got %s", snap.Source)
	}
}

func TestChain_AllFailedPrefersRateLimited(t *testing.T) {
	c := NewChain(zap.NewNop(),
		stubProvider{"primary", failSnapshot(events.SourceError)},
		stubProvider{"secondary", failSnapshot(events.SourceRateLimited)},
	)

	snap := c.FetchLive(context.Background())
	if snap.Source != events.SourceRateLimited {
		t.Fatalf("rate-limited must win over generic error, got %s", snap.Source)
	}
}

func TestChain_NoProviders(t *testing.T) {
	c := NewChain(zap.NewNop())

	snap := c.FetchLive(context.Background())
	if snap.Source != events.SourceNone {
		t.Fatalf("expected none, got %s", snap.Source)
	}
}
