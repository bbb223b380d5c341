package events

import "time"

// Fontes sintéticas usadas quando não há dado de provedor.
const (
	SourceNone        = "none"
	SourceError       = "error"
	SourceRateLimited = "rate-limited"
)

// Snapshot é uma coleção de partidas obtida em um único fetch.
// Imutável depois de publicado: um fetch novo substitui o snapshot inteiro,
// nunca altera o anterior.
type Snapshot struct {
	Matches   []LiveMatch `json:"matches"`
	Source    string      `json:"source"`
	FetchedAt time.Time   `json:"fetchedAt"`
	Count     int         `json:"count"`
}

// NewSnapshot carimba o resultado de um fetch com fonte e horário.
func NewSnapshot(matches []LiveMatch, source string, fetchedAt time.Time) Snapshot {
	if matches == nil {
		matches = []LiveMatch{}
	}
	if source == "" {
		source = SourceNone
	}
	return Snapshot{
		Matches:   matches,
		Source:    source,
		FetchedAt: fetchedAt,
		Count:     len(matches),
	}
}

// Failed indica snapshot sem dado aproveitável (erro, rate limit ou vazio).
func (s Snapshot) Failed() bool {
	return s.Source == SourceError || s.Source == SourceRateLimited || len(s.Matches) == 0
}
