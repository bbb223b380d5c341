package repo

import (
	"encoding/json"
	"time"
)

// Subscription registra um canal de notificação vinculado a uma aposta.
// Channel: console | webhook | telegram
type Subscription struct {
	ID        string    `json:"id"`
	BetID     string    `json:"betId"`
	Channel   string    `json:"channel"`
	Target    string    `json:"target,omitempty"` // URL do webhook ou chat id do telegram
	CreatedAt time.Time `json:"createdAt"`
}

// EventLog é uma entrada da trilha de auditoria.
type EventLog struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}
