package correlator

import (
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Correlator casa seleções de apostas rastreadas com partidas do snapshot ao
// vivo por similaridade de nome de time.
type Correlator struct {
	Log *zap.Logger
}

func New(log *zap.Logger) *Correlator { return &Correlator{Log: log} }

// Correlate devolve uma cópia enriquecida de cada aposta com pelo menos uma
// seleção casada no snapshot. Apostas settled são ignoradas; apostas sem
// nenhum casamento são simplesmente omitidas (filtro de fan-out, não erro).
// Seleções malformadas (time vazio) são puladas sem abortar as demais.
func (c *Correlator) Correlate(snapshot events.Snapshot, bets []events.TrackedBet) []events.TrackedBet {
	if len(snapshot.Matches) == 0 || len(bets) == 0 {
		return nil
	}

	var out []events.TrackedBet
	for _, bet := range bets {
		if bet.Status == events.BetSettled {
			continue
		}

		enriched, hasLive := c.enrich(bet, snapshot.Matches)
		if !hasLive {
			continue
		}
		out = append(out, enriched)
	}
	return out
}

// enrich copia a aposta anexando .live em cada seleção casada. A aposta
// original nunca é mutada: o enriquecimento é derivado a cada tick e
// descartado após a publicação.
func (c *Correlator) enrich(bet events.TrackedBet, matches []events.LiveMatch) (events.TrackedBet, bool) {
	enriched := bet
	enriched.Selections = make([]events.BetSelection, len(bet.Selections))
	copy(enriched.Selections, bet.Selections)

	hasLive := false
	for i, sel := range enriched.Selections {
		selHome := normalizeName(sel.HomeTeam)
		selAway := normalizeName(sel.AwayTeam)
		if selHome == "" || selAway == "" {
			c.Log.Debug("skipping malformed selection",
				zap.String("betId", bet.ID),
				zap.Int("selection", i),
			)
			continue
		}

		// Primeiro casamento vence, na ordem do snapshot.
		for _, m := range matches {
			if !namesMatch(normalizeName(m.HomeTeam), normalizeName(m.AwayTeam), selHome, selAway) {
				continue
			}
			enriched.Selections[i].Live = &events.LiveInfo{
				HomeScore: m.HomeScore,
				AwayScore: m.AwayScore,
				Status:    m.Status,
				EventID:   m.EventID,
				Source:    m.Source,
			}
			hasLive = true
			break
		}
	}

	return enriched, hasLive
}

// normalizeName prepara um nome de time para comparação: minúsculas e só
// caracteres alfanuméricos. "Man. United" -> "manunited".
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// namesMatch decide se uma seleção corresponde a uma partida ao vivo.
// Os nomes divergem entre plataformas ("Man United" vs "Manchester United"),
// então além da igualdade exata valem os dois sentidos de continência:
//
//	(a) igualdade exata dos dois lados
//	(b) nomes do registro ao vivo contêm os da seleção
//	(c) nomes da seleção contêm os do registro ao vivo
func namesMatch(liveHome, liveAway, selHome, selAway string) bool {
	return (liveHome == selHome && liveAway == selAway) ||
		(strings.Contains(liveHome, selHome) && strings.Contains(liveAway, selAway)) ||
		(strings.Contains(selHome, liveHome) && strings.Contains(selAway, liveAway))
}
