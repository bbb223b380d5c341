package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Hub gerencia conexões WebSocket do tracker
// Snapshots vão para todos os clientes conectados; atualizações de bilhete
// vão apenas para quem se inscreveu no betId correspondente
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// todas as conexões ativas
	conns map[*websocket.Conn]struct{}
	// betID -> set of connections
	subs map[string]map[*websocket.Conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		conns:    make(map[*websocket.Conn]struct{}),
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em bilhetes e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.BetID]; !ok {
				h.subs[msg.BetID] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.BetID][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.BetID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.BetID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	delete(h.conns, conn)
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// BroadcastSnapshot envia o snapshot para todos os clientes conectados
func (h *Hub) BroadcastSnapshot(upd events.SnapshotUpdated) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(upd)
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

// BroadcastBetUpdate envia a atualização para os inscritos no betId
// O set interno é copiado sob o lock: subscribe/unsubscribe concorrentes
// mutam o mesmo map
func (h *Hub) BroadcastBetUpdate(upd events.BetLiveUpdated) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[upd.BetID]))
	for c := range h.subs[upd.BetID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(upd)
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
