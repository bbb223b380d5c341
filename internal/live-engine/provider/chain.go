package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Chain tenta os provedores em ordem e devolve o primeiro snapshot com dado.
// Quando todos falham, devolve a falha mais específica observada:
// rate-limited > error > none (o cache trata 429 de forma diferenciada).
type Chain struct {
	Providers []Provider
	Log       *zap.Logger
}

var _ Provider = (*Chain)(nil)

func NewChain(log *zap.Logger, providers ...Provider) *Chain {
	return &Chain{Providers: providers, Log: log}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) FetchLive(ctx context.Context) events.Snapshot {
	return c.fetch(ctx, func(p Provider) events.Snapshot { return p.FetchLive(ctx) })
}

func (c *Chain) FetchSchedule(ctx context.Context) events.Snapshot {
	return c.fetch(ctx, func(p Provider) events.Snapshot { return p.FetchSchedule(ctx) })
}

func (c *Chain) fetch(ctx context.Context, call func(Provider) events.Snapshot) events.Snapshot {
	var worst events.Snapshot
	worst.Source = events.SourceNone

	for _, p := range c.Providers {
		if ctx.Err() != nil {
			break
		}
		snap := call(p)
		if !snap.Failed() {
			return snap
		}
		c.Log.Debug("provider fallback",
			zap.String("provider", p.Name()),
			zap.String("source", snap.Source),
		)
		if rank(snap.Source) > rank(worst.Source) {
			worst = snap
		}
	}
	return worst
}

// rank ordena falhas: rate-limited vence erro, que vence um snapshot vazio
// porém bem-sucedido, que vence ausência total de dado.
func rank(source string) int {
	switch source {
	case events.SourceRateLimited:
		return 3
	case events.SourceError:
		return 2
	case events.SourceNone, "":
		return 0
	default:
		return 1
	}
}
