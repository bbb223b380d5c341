package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Normalização de partidas vindas de provedores heterogêneos.
//
// Cada provedor usa nomes de campo próprios (home/homeTeam/teams.home,
// homeScore/home_score/goals.home, ...). As listas abaixo definem a ordem de
// prioridade dos apelidos conhecidos: vence o primeiro valor não-nulo.

var (
	idAliases = []string{"id", "eventId", "event_id", "fixture.id"}

	homeAliases = []string{"homeTeam", "home", "homeName", "home_team", "teams.home", "localTeam"}
	awayAliases = []string{"awayTeam", "away", "awayName", "away_team", "teams.away", "visitorTeam"}

	leagueAliases = []string{"competition", "league", "tournament"}

	statusAliases = []string{"status", "matchStatus", "fixture.status.short", "fixture.status.long"}
	detailAliases = []string{"statusDetail", "status_detail", "clock", "minute", "fixture.status.elapsed"}

	homeScoreAliases = []string{"homeScore", "home_score", "score.fullTime.home", "goals.home"}
	awayScoreAliases = []string{"awayScore", "away_score", "score.fullTime.away", "goals.away"}

	startAliases = []string{"startTime", "start_time", "utcDate", "kickoff", "date", "fixture.date"}
)

// statusTable mapeia vocabulários de status dos provedores para o conjunto
// canônico. Valores não reconhecidos viram UNKNOWN, nunca passam verbatim.
var statusTable = map[string]events.MatchStatus{
	"scheduled":   events.StatusScheduled,
	"timed":       events.StatusScheduled,
	"ns":          events.StatusScheduled,
	"not started": events.StatusScheduled,

	"in_play":     events.StatusInPlay,
	"live":        events.StatusInPlay,
	"inplay":      events.StatusInPlay,
	"1h":          events.StatusInPlay,
	"2h":          events.StatusInPlay,
	"et":          events.StatusInPlay,
	"first half":  events.StatusInPlay,
	"second half": events.StatusInPlay,

	"paused":    events.StatusPaused,
	"ht":        events.StatusPaused,
	"halftime":  events.StatusPaused,
	"half time": events.StatusPaused,

	"finished":       events.StatusFinished,
	"ft":             events.StatusFinished,
	"aet":            events.StatusFinished,
	"pen":            events.StatusFinished,
	"match finished": events.StatusFinished,

	"postponed": events.StatusPostponed,
	"pst":       events.StatusPostponed,

	"cancelled": events.StatusCancelled,
	"canc":      events.StatusCancelled,

	"suspended": events.StatusSuspended,
	"susp":      events.StatusSuspended,
	"abandoned": events.StatusSuspended,
	"abd":       events.StatusSuspended,
}

// MapStatus converte um status upstream para o enum canônico.
func MapStatus(raw string) events.MatchStatus {
	if st, ok := statusTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return st
	}
	return events.StatusUnknown
}

// NormalizeMatch converte um objeto JSON genérico de partida no registro
// canônico. É uma função pura: normalizar o mesmo objeto duas vezes produz
// valores idênticos.
func NormalizeMatch(m map[string]any, source string) events.LiveMatch {
	lm := events.LiveMatch{
		EventID:   firstString(m, idAliases),
		HomeTeam:  firstString(m, homeAliases),
		AwayTeam:  firstString(m, awayAliases),
		League:    firstString(m, leagueAliases),
		Status:    MapStatus(firstString(m, statusAliases)),
		HomeScore: firstScore(m, homeScoreAliases),
		AwayScore: firstScore(m, awayScoreAliases),
		StartTime: firstTime(m, startAliases),
		Source:    source,
	}

	// Nomes de time nunca são omitidos; na dúvida, "Unknown".
	if lm.HomeTeam == "" {
		lm.HomeTeam = "Unknown"
	}
	if lm.AwayTeam == "" {
		lm.AwayTeam = "Unknown"
	}
	if lm.League == "" {
		lm.League = "Unknown"
	}

	lm.StatusDetail = statusDetail(m)

	return lm
}

// statusDetail extrai o texto livre de status (relógio da partida etc).
// Um minuto numérico (fixture.status.elapsed) vira "63'".
func statusDetail(m map[string]any) string {
	for _, path := range detailAliases {
		v, ok := lookup(m, path)
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return fmt.Sprintf("%d'", int(t))
		}
	}
	return ""
}

// lookup resolve um caminho com pontos ("score.fullTime.home") dentro do
// objeto JSON decodificado.
func lookup(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// firstString devolve o primeiro valor textual não-vazio entre os apelidos.
// Objetos aninhados do tipo time ({name, shortName}) são resolvidos pelo nome.
func firstString(m map[string]any, aliases []string) string {
	for _, path := range aliases {
		v, ok := lookup(m, path)
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return trimFloat(t)
		case map[string]any:
			for _, key := range []string{"name", "shortName", "short_name"} {
				if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

// firstScore devolve o primeiro placar não-nulo; sem placar (pré-jogo) => nil.
func firstScore(m map[string]any, aliases []string) *int {
	for _, path := range aliases {
		v, ok := lookup(m, path)
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			n := int(t)
			return &n
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return &n
			}
		}
	}
	return nil
}

func firstTime(m map[string]any, aliases []string) *time.Time {
	for _, path := range aliases {
		v, ok := lookup(m, path)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return &ts
		}
	}
	return nil
}

// trimFloat formata ids numéricos vindos do JSON sem o sufixo ".0".
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
