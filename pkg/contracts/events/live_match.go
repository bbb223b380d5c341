package events

import "time"

// MatchStatus é o conjunto fechado de status de partida após normalização.
// Vocabulários dos provedores upstream variam e são sempre mapeados para cá.
type MatchStatus string

const (
	StatusScheduled MatchStatus = "SCHEDULED"
	StatusInPlay    MatchStatus = "IN_PLAY"
	StatusPaused    MatchStatus = "PAUSED"
	StatusFinished  MatchStatus = "FINISHED"
	StatusPostponed MatchStatus = "POSTPONED"
	StatusCancelled MatchStatus = "CANCELLED"
	StatusSuspended MatchStatus = "SUSPENDED"
	StatusUnknown   MatchStatus = "UNKNOWN"
)

// LiveMatch é o registro canônico de partida pós-normalização.
// HomeTeam/AwayTeam nunca ficam vazios: o normalizador usa "Unknown" como default.
// Scores são ponteiros porque antes do pontapé inicial não existe placar.
type LiveMatch struct {
	EventID      string      `json:"eventId"`
	HomeTeam     string      `json:"homeTeam"`
	AwayTeam     string      `json:"awayTeam"`
	League       string      `json:"league"`
	Status       MatchStatus `json:"status"`
	StatusDetail string      `json:"statusDetail,omitempty"` // ex: "63'" ou "HALF TIME"
	HomeScore    *int        `json:"homeScore"`
	AwayScore    *int        `json:"awayScore"`
	StartTime    *time.Time  `json:"startTime,omitempty"`
	Source       string      `json:"source"`
}
