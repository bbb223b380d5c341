package correlator

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

func score(n int) *int { return &n }

func snapshotWith(matches ...events.LiveMatch) events.Snapshot {
	return events.NewSnapshot(matches, "football-data", time.Unix(1_700_000_000, 0))
}

func betWith(status string, sels ...events.BetSelection) events.TrackedBet {
	return events.TrackedBet{
		ID:         "bet-1",
		Status:     status,
		Selections: sels,
	}
}

func TestCorrelate_ExactMatch(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(events.LiveMatch{
		EventID:   "ev1",
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		Status:    events.StatusInPlay,
		HomeScore: score(1),
		AwayScore: score(0),
		Source:    "football-data",
	})
	bets := []events.TrackedBet{
		betWith(events.BetPending, events.BetSelection{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}),
	}

	out := c.Correlate(snap, bets)
	if len(out) != 1 {
		t.Fatalf("expected 1 enriched bet, got %d", len(out))
	}

	live := out[0].Selections[0].Live
	if live == nil {
		t.Fatal("selection not enriched")
	}
	if *live.HomeScore != 1 || *live.AwayScore != 0 {
		t.Errorf("wrong score: %d-%d", *live.HomeScore, *live.AwayScore)
	}
	if live.Status != events.StatusInPlay {
		t.Errorf("wrong status: %s", live.Status)
	}
	if live.EventID != "ev1" || live.Source != "football-data" {
		t.Errorf("wrong provenance: %s %s", live.EventID, live.Source)
	}
}

func TestCorrelate_SubstringTolerance(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(events.LiveMatch{
		EventID:  "ev2",
		HomeTeam: "Manchester United",
		AwayTeam: "Liverpool FC",
		Status:   events.StatusInPlay,
	})

	// Seleção com nomes curtos, registro ao vivo com nomes longos
	bets := []events.TrackedBet{
		betWith(events.BetPending, events.BetSelection{HomeTeam: "Man United", AwayTeam: "Liverpool"}),
	}
	out := c.Correlate(snap, bets)
	if len(out) != 1 || out[0].Selections[0].Live == nil {
		t.Fatal("live-contains-selection branch failed")
	}

	// Sentido inverso: seleção com nomes longos, registro com nomes curtos
	snap2 := snapshotWith(events.LiveMatch{
		EventID:  "ev3",
		HomeTeam: "Betis",
		AwayTeam: "Sevilla",
		Status:   events.StatusInPlay,
	})
	bets2 := []events.TrackedBet{
		betWith(events.BetPending, events.BetSelection{HomeTeam: "Real Betis", AwayTeam: "Sevilla FC"}),
	}
	out2 := c.Correlate(snap2, bets2)
	if len(out2) != 1 || out2[0].Selections[0].Live == nil {
		t.Fatal("selection-contains-live branch failed")
	}
}

func TestCorrelate_SettledBetExcluded(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(events.LiveMatch{
		EventID:  "ev1",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Status:   events.StatusInPlay,
	})
	bets := []events.TrackedBet{
		betWith(events.BetSettled, events.BetSelection{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}),
	}

	if out := c.Correlate(snap, bets); len(out) != 0 {
		t.Fatalf("settled bet must not be correlated, got %d", len(out))
	}
}

func TestCorrelate_NoMatchIsSkippedSilently(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(events.LiveMatch{
		EventID:  "ev1",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Status:   events.StatusInPlay,
	})
	bets := []events.TrackedBet{
		betWith(events.BetPending, events.BetSelection{HomeTeam: "Barcelona", AwayTeam: "Madrid"}),
	}

	if out := c.Correlate(snap, bets); len(out) != 0 {
		t.Fatalf("unmatched bet must be omitted, got %d", len(out))
	}
}

func TestCorrelate_MalformedSelectionDoesNotAbortBet(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(events.LiveMatch{
		EventID:  "ev1",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Status:   events.StatusInPlay,
	})
	bets := []events.TrackedBet{
		betWith(events.BetPending,
			events.BetSelection{HomeTeam: "", AwayTeam: ""},
			events.BetSelection{HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
		),
	}

	out := c.Correlate(snap, bets)
	if len(out) != 1 {
		t.Fatalf("expected 1 enriched bet, got %d", len(out))
	}
	if out[0].Selections[0].Live != nil {
		t.Error("malformed selection must stay unenriched")
	}
	if out[0].Selections[1].Live == nil {
		t.Error("valid selection must still be enriched")
	}
}

func TestCorrelate_DoesNotMutateInput(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(events.LiveMatch{
		EventID:  "ev1",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Status:   events.StatusInPlay,
	})
	bets := []events.TrackedBet{
		betWith(events.BetPending, events.BetSelection{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}),
	}

	c.Correlate(snap, bets)
	if bets[0].Selections[0].Live != nil {
		t.Fatal("correlate must not mutate the tracked bet")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Arsenal", "arsenal"},
		{"Man. United", "manunited"},
		{"Liverpool FC", "liverpoolfc"},
		{"São Paulo", "sopaulo"},
		{"  1. FC Köln ", "1fckln"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeName(tt.in); got != tt.want {
			t.Errorf("normalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCorrelate_FirstMatchWinsInSnapshotOrder(t *testing.T) {
	c := New(zap.NewNop())

	snap := snapshotWith(
		events.LiveMatch{EventID: "first", HomeTeam: "United", AwayTeam: "City", Status: events.StatusInPlay},
		events.LiveMatch{EventID: "second", HomeTeam: "Manchester United", AwayTeam: "Manchester City", Status: events.StatusInPlay},
	)
	bets := []events.TrackedBet{
		betWith(events.BetPending, events.BetSelection{HomeTeam: "Manchester United", AwayTeam: "Manchester City"}),
	}

	out := c.Correlate(snap, bets)
	if len(out) != 1 {
		t.Fatalf("expected 1 enriched bet, got %d", len(out))
	}
	if out[0].Selections[0].Live.EventID != "first" {
		t.Errorf("first match in snapshot order must win, got %s", out[0].Selections[0].Live.EventID)
	}
}
