package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/cache"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/correlator"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

type stubProvider struct {
	calls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) FetchLive(ctx context.Context) events.Snapshot {
	s.calls++
	one := 1
	return events.NewSnapshot([]events.LiveMatch{
		{
			EventID:   "ev1",
			HomeTeam:  "Arsenal",
			AwayTeam:  "Chelsea",
			Status:    events.StatusInPlay,
			HomeScore: &one,
			Source:    "stub",
		},
	}, "stub", time.Now())
}

func (s *stubProvider) FetchSchedule(ctx context.Context) events.Snapshot {
	return events.NewSnapshot(nil, "stub", time.Now())
}

type stubBets struct {
	bets []events.TrackedBet
}

func (s *stubBets) ListBets(ctx context.Context) ([]events.TrackedBet, error) {
	return s.bets, nil
}

// capturePublisher acumula tudo que o engine publica.
type capturePublisher struct {
	mu         sync.Mutex
	snapshots  int
	betUpdates []events.BetLiveUpdated
}

func (c *capturePublisher) PublishSnapshot(ctx context.Context, snap events.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots++
	return nil
}

func (c *capturePublisher) PublishScheduleSnapshot(ctx context.Context, snap events.Snapshot) error {
	return nil
}

func (c *capturePublisher) PublishBetUpdate(ctx context.Context, upd events.BetLiveUpdated) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.betUpdates = append(c.betUpdates, upd)
	return nil
}

func (c *capturePublisher) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots, len(c.betUpdates)
}

func newTestEngine(interval time.Duration, bets []events.TrackedBet) (*Engine, *capturePublisher) {
	log := zap.NewNop()
	pub := &capturePublisher{}
	snapCache := cache.New(&stubProvider{}, cache.RealClock(), time.Millisecond, time.Millisecond, log)
	eng := New(log, snapCache, correlator.New(log), &stubBets{bets: bets}, pub, nil, interval)
	return eng, pub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStart_FirstTickIsImmediate(t *testing.T) {
	// Intervalo de uma hora: qualquer publicação veio do tick imediato
	eng, pub := newTestEngine(time.Hour, []events.TrackedBet{
		{
			ID:     "bet-1",
			Status: events.BetPending,
			Selections: []events.BetSelection{
				{HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
			},
		},
	})

	eng.Start()
	defer eng.Stop()

	waitFor(t, func() bool {
		snaps, betUpds := pub.counts()
		return snaps == 1 && betUpds == 1
	})

	_, betUpds := pub.counts()
	if betUpds != 1 {
		t.Fatalf("expected 1 bet update from immediate tick, got %d", betUpds)
	}

	pub.mu.Lock()
	upd := pub.betUpdates[0]
	pub.mu.Unlock()

	if upd.Type != events.TypeBetLiveUpdated || upd.BetID != "bet-1" {
		t.Errorf("bad update: %+v", upd)
	}
	if upd.Bet.Selections[0].Live == nil {
		t.Error("published bet must carry enriched selection")
	}
}

func TestStop_NoFurtherEvents(t *testing.T) {
	eng, pub := newTestEngine(20*time.Millisecond, nil)

	eng.Start()
	waitFor(t, func() bool {
		snaps, _ := pub.counts()
		return snaps >= 2
	})
	eng.Stop()

	snapsAtStop, _ := pub.counts()
	time.Sleep(100 * time.Millisecond) // vários intervalos
	snapsAfter, _ := pub.counts()

	if snapsAfter != snapsAtStop {
		t.Fatalf("events after stop: %d -> %d", snapsAtStop, snapsAfter)
	}
	if eng.Running() {
		t.Error("engine must report stopped")
	}
}

func TestStartStop_Idempotent(t *testing.T) {
	eng, pub := newTestEngine(time.Hour, nil)

	eng.Start()
	eng.Start() // no-op
	waitFor(t, func() bool {
		snaps, _ := pub.counts()
		return snaps >= 1
	})

	// Um único loop: o tick imediato publicou exatamente uma vez
	snaps, _ := pub.counts()
	if snaps != 1 {
		t.Fatalf("double start leaked a second loop: %d snapshots", snaps)
	}

	eng.Stop()
	eng.Stop() // no-op
}

type failingStream struct{}

func (failingStream) PublishBetUpdate(ctx context.Context, upd events.BetLiveUpdated) error {
	return errors.New("broker down")
}

func TestTick_BetStreamFailureIsLogged(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)
	log := zap.New(core)

	pub := &capturePublisher{}
	snapCache := cache.New(&stubProvider{}, cache.RealClock(), time.Millisecond, time.Millisecond, log)
	bets := &stubBets{bets: []events.TrackedBet{
		{
			ID:     "bet-1",
			Status: events.BetPending,
			Selections: []events.BetSelection{
				{HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
			},
		},
	}}
	eng := New(log, snapCache, correlator.New(log), bets, pub, failingStream{}, time.Hour)

	var stages []string
	eng.OnTickError = func(stage string) { stages = append(stages, stage) }

	eng.tick()

	if got := observed.FilterMessage("bet stream publish failed").Len(); got != 1 {
		t.Fatalf("expected 1 warn for the stream failure, got %d", got)
	}
	if len(stages) != 1 || stages[0] != "kafka_bet" {
		t.Errorf("error callback stages = %v", stages)
	}

	// A falha no stream não derruba o fan-out principal
	if _, betUpds := pub.counts(); betUpds != 1 {
		t.Errorf("primary publisher must still receive the update, got %d", betUpds)
	}
}

func TestSnapshot_ServesFromCache(t *testing.T) {
	eng, _ := newTestEngine(time.Hour, nil)

	snap := eng.Snapshot(context.Background(), cache.KindLive)
	if snap.Count != 1 || snap.Source != "stub" {
		t.Fatalf("unexpected snapshot: source=%s count=%d", snap.Source, snap.Count)
	}
}
