package provider

import (
	"context"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Provider é a interface de um provedor upstream de dados ao vivo.
//
// Falha de rede, timeout ou resposta não-2xx NUNCA viram erro Go para o
// chamador: o provedor devolve um Snapshot com source "error" (ou
// "rate-limited" no caso de HTTP 429), para que a camada de cache aplique a
// política de fallback de forma uniforme.
type Provider interface {
	Name() string
	FetchLive(ctx context.Context) events.Snapshot
	FetchSchedule(ctx context.Context) events.Snapshot
}
