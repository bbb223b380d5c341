package events

import "time"

// Status de uma aposta rastreada.
const (
	BetPending = "pending"
	BetLive    = "live"
	BetSettled = "settled"
)

// LiveInfo é o placar/status anexado a uma seleção quando o correlator
// encontra a partida correspondente no snapshot ao vivo. Nunca é persistido.
type LiveInfo struct {
	HomeScore *int        `json:"homeScore"`
	AwayScore *int        `json:"awayScore"`
	Status    MatchStatus `json:"status"`
	EventID   string      `json:"eventId"`
	Source    string      `json:"source"`
}

// BetSelection é uma seleção dentro de um bilhete rastreado.
type BetSelection struct {
	MatchID   string     `json:"matchId,omitempty"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	League    string     `json:"league,omitempty"`
	Market    string     `json:"market,omitempty"`
	Selection string     `json:"selection,omitempty"`
	Odds      float64    `json:"odds,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Live      *LiveInfo  `json:"live,omitempty"`
}

// TrackedBet é o bilhete rastreado como lido do storage e como trafega
// nos eventos de fan-out (com seleções eventualmente enriquecidas).
type TrackedBet struct {
	ID           string         `json:"id"`
	BookingCode  string         `json:"bookingCode"`
	Platform     string         `json:"platform"`
	Status       string         `json:"status"` // pending | live | settled
	TotalOdds    float64        `json:"totalOdds"`
	Stake        float64        `json:"stake"`
	PotentialWin float64        `json:"potentialWin"`
	Currency     string         `json:"currency,omitempty"`
	Selections   []BetSelection `json:"selections"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
