package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

// fakeProvider devolve snapshots de uma fila e conta as invocações.
type fakeProvider struct {
	liveCalls  int
	schedCalls int
	queue      []events.Snapshot
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchLive(ctx context.Context) events.Snapshot {
	f.liveCalls++
	return f.next()
}

func (f *fakeProvider) FetchSchedule(ctx context.Context) events.Snapshot {
	f.schedCalls++
	return f.next()
}

func (f *fakeProvider) next() events.Snapshot {
	if len(f.queue) == 0 {
		return events.NewSnapshot(nil, events.SourceError, time.Now())
	}
	s := f.queue[0]
	if len(f.queue) > 1 {
		f.queue = f.queue[1:]
	}
	return s
}

func score(n int) *int { return &n }

func liveSnapshot(source string, fetchedAt time.Time) events.Snapshot {
	return events.NewSnapshot([]events.LiveMatch{
		{
			EventID:   "ev1",
			HomeTeam:  "Arsenal",
			AwayTeam:  "Chelsea",
			League:    "Premier League",
			Status:    events.StatusInPlay,
			HomeScore: score(1),
			AwayScore: score(0),
			Source:    source,
		},
	}, source, fetchedAt)
}

func TestGet_FreshSnapshotHitsProviderOnce(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	prov := &fakeProvider{queue: []events.Snapshot{liveSnapshot("fake", clock.now)}}
	c := New(prov, clock, 30*time.Second, 60*time.Second, zap.NewNop())

	ctx := context.Background()

	// Várias leituras dentro do TTL: exatamente um fetch
	for i := 0; i < 5; i++ {
		snap := c.Get(ctx, KindLive)
		if snap.Count != 1 {
			t.Fatalf("expected 1 match, got %d", snap.Count)
		}
		clock.advance(5 * time.Second)
	}

	if prov.liveCalls != 1 {
		t.Fatalf("expected 1 provider call within TTL, got %d", prov.liveCalls)
	}

	// Passado o TTL, a próxima leitura dispara exatamente mais um fetch
	clock.advance(30 * time.Second)
	c.Get(ctx, KindLive)
	if prov.liveCalls != 2 {
		t.Fatalf("expected 2 provider calls after TTL, got %d", prov.liveCalls)
	}
}

func TestGet_StaleFallbackOnFetchError(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	good := liveSnapshot("fake", clock.now)
	bad := events.NewSnapshot(nil, events.SourceError, clock.now.Add(time.Minute))

	prov := &fakeProvider{queue: []events.Snapshot{good, bad}}
	c := New(prov, clock, 30*time.Second, 60*time.Second, zap.NewNop())

	ctx := context.Background()

	first := c.Get(ctx, KindLive)
	if first.Source != "fake" {
		t.Fatalf("expected fake source, got %s", first.Source)
	}

	// TTL vencido, fetch falha: o snapshot antigo volta intacto
	clock.advance(time.Minute)
	second := c.Get(ctx, KindLive)
	if second.Source != "fake" || second.Count != 1 {
		t.Fatalf("expected stale snapshot, got source=%s count=%d", second.Source, second.Count)
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Errorf("stale snapshot must keep original fetchedAt")
	}
}

func TestGet_StaleFallbackResetsTimer(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	good := liveSnapshot("fake", clock.now)
	bad := events.NewSnapshot(nil, events.SourceRateLimited, clock.now)

	prov := &fakeProvider{queue: []events.Snapshot{good, bad}}
	c := New(prov, clock, 30*time.Second, 60*time.Second, zap.NewNop())

	ctx := context.Background()
	c.Get(ctx, KindLive)

	clock.advance(time.Minute)
	c.Get(ctx, KindLive) // fetch falha (429), serve stale e rearma o timer
	if prov.liveCalls != 2 {
		t.Fatalf("expected 2 calls, got %d", prov.liveCalls)
	}

	// Dentro da nova janela não pode haver novo fetch (backoff por reuso)
	clock.advance(10 * time.Second)
	c.Get(ctx, KindLive)
	if prov.liveCalls != 2 {
		t.Fatalf("rate-limited upstream got hammered: %d calls", prov.liveCalls)
	}
}

func TestGet_NoPreviousSnapshotReturnsFailureAsIs(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	prov := &fakeProvider{queue: []events.Snapshot{
		events.NewSnapshot(nil, events.SourceRateLimited, clock.now),
	}}
	c := New(prov, clock, 30*time.Second, 60*time.Second, zap.NewNop())

	snap := c.Get(context.Background(), KindLive)
	if snap.Source != events.SourceRateLimited {
		t.Fatalf("expected rate-limited snapshot, got %s", snap.Source)
	}
	if snap.Count != 0 {
		t.Fatalf("expected empty snapshot, got %d matches", snap.Count)
	}
}

func TestGet_ScheduleUsesOwnTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	prov := &fakeProvider{queue: []events.Snapshot{liveSnapshot("fake", clock.now)}}
	c := New(prov, clock, 30*time.Second, 60*time.Second, zap.NewNop())

	ctx := context.Background()
	c.Get(ctx, KindSchedule)

	// 45s: live já teria vencido, tabela ainda não
	clock.advance(45 * time.Second)
	c.Get(ctx, KindSchedule)
	if prov.schedCalls != 1 {
		t.Fatalf("schedule TTL too short: %d calls", prov.schedCalls)
	}

	clock.advance(30 * time.Second)
	c.Get(ctx, KindSchedule)
	if prov.schedCalls != 2 {
		t.Fatalf("expected refetch after schedule TTL, got %d calls", prov.schedCalls)
	}
}
