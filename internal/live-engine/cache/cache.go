package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/provider"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Kind identifica o tipo de snapshot cacheado.
type Kind string

const (
	KindLive     Kind = "live"
	KindSchedule Kind = "schedule"
)

// Clock abstrai o relógio para permitir testes com tempo falso.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock devolve o relógio de sistema.
func RealClock() Clock { return realClock{} }

// entry guarda um snapshot com o instante do último fetch.
// Validade: now - lastFetch < ttl.
type entry struct {
	snapshot  events.Snapshot
	lastFetch time.Time
	has       bool
}

// SnapshotCache mantém um snapshot por tipo (live/tabela), compartilhado por
// todo o processo: um fetch upstream atende todos os usuários conectados.
//
// Política de falha: se o fetch falhar (ou voltar vazio/rate-limited) e ainda
// existir um snapshot anterior com dado, o cache serve o anterior e reinicia
// o timer, assim o upstream doente não é martelado a cada chamada
// (backoff por reuso). Sem snapshot anterior, a falha é devolvida como está.
type SnapshotCache struct {
	prov        provider.Provider
	clock       Clock
	liveTTL     time.Duration
	scheduleTTL time.Duration
	log         *zap.Logger

	mu      sync.Mutex
	entries map[Kind]*entry
}

func New(prov provider.Provider, clock Clock, liveTTL, scheduleTTL time.Duration, log *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		prov:        prov,
		clock:       clock,
		liveTTL:     liveTTL,
		scheduleTTL: scheduleTTL,
		log:         log,
		entries: map[Kind]*entry{
			KindLive:     {},
			KindSchedule: {},
		},
	}
}

// Get devolve o snapshot cacheado se ainda válido; caso contrário dispara um
// único fetch no provedor e armazena o resultado. Nunca retorna erro: toda
// falha upstream já chega absorvida no campo Source do snapshot.
func (c *SnapshotCache) Get(ctx context.Context, kind Kind) events.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[kind]
	ttl := c.ttl(kind)
	now := c.clock.Now()

	if e.has && now.Sub(e.lastFetch) < ttl {
		return e.snapshot
	}

	fetched := c.fetch(ctx, kind)

	if fetched.Failed() && e.has && len(e.snapshot.Matches) > 0 {
		// Upstream doente: serve o snapshot antigo intacto (mesmo fetchedAt,
		// para o cliente poder inferir a idade) e reinicia o timer.
		c.log.Warn("upstream fetch failed, serving stale snapshot",
			zap.String("kind", string(kind)),
			zap.String("source", fetched.Source),
			zap.Time("staleFetchedAt", e.snapshot.FetchedAt),
		)
		e.lastFetch = now
		return e.snapshot
	}

	e.snapshot = fetched
	e.lastFetch = now
	e.has = true
	return fetched
}

// Peek devolve o snapshot corrente sem disparar fetch (pode estar vencido).
func (c *SnapshotCache) Peek(kind Kind) (events.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[kind]
	return e.snapshot, e.has
}

func (c *SnapshotCache) ttl(kind Kind) time.Duration {
	if kind == KindSchedule {
		return c.scheduleTTL
	}
	return c.liveTTL
}

func (c *SnapshotCache) fetch(ctx context.Context, kind Kind) events.Snapshot {
	if kind == KindSchedule {
		return c.prov.FetchSchedule(ctx)
	}
	return c.prov.FetchLive(ctx)
}
