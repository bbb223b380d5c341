package events

// Tipos das mensagens de fan-out publicadas pelo live-engine.
const (
	TypeSnapshotUpdated = "snapshot-updated"
	TypeBetLiveUpdated  = "bet-live-updated"
)

// SnapshotUpdated é emitido a cada tick com fetch bem-sucedido.
type SnapshotUpdated struct {
	Type     string   `json:"type"` // snapshot-updated
	Snapshot Snapshot `json:"snapshot"`
}

// BetLiveUpdated é emitido por aposta correlacionada (zero ou mais por tick).
// Bet carrega as seleções já enriquecidas com .live.
type BetLiveUpdated struct {
	Type     string     `json:"type"` // bet-live-updated
	BetID    string     `json:"betId"`
	Bet      TrackedBet `json:"bet"`
	TsUnixMs int64      `json:"tsUnixMs"`
}
