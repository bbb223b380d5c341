package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Parser converte um código de reserva de uma casa de apostas em um bilhete rastreável
type Parser interface {
	Platform() string
	Parse(ctx context.Context, bookingCode string) (events.TrackedBet, error)
}

// Registry mantém os parsers disponíveis indexados por plataforma
type Registry struct {
	parsers map[string]Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range parsers {
		r.parsers[strings.ToLower(p.Platform())] = p
	}
	return r
}

// Get retorna o parser da plataforma informada (case-insensitive)
func (r *Registry) Get(platform string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(platform)]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
	return p, nil
}

// Platforms lista as plataformas registradas
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		out = append(out, name)
	}
	return out
}
