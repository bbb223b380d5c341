package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa os eventos recebidos para os clientes WebSocket via Hub
//
// O canal carrega dois tipos de evento, distinguidos pelo campo "type":
// - snapshot-updated: broadcast para todos os clientes
// - bet-live-updated: apenas para os inscritos no betId
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				dispatch(hub, []byte(msg.Payload))
			}
		}
	}()
}

func dispatch(hub *Hub, payload []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		log.Printf("ws subscriber unmarshal error: %v", err)
		return
	}

	switch head.Type {
	case events.TypeSnapshotUpdated:
		var upd events.SnapshotUpdated
		if err := json.Unmarshal(payload, &upd); err != nil {
			log.Printf("ws subscriber unmarshal error: %v", err)
			return
		}
		hub.BroadcastSnapshot(upd)
	case events.TypeBetLiveUpdated:
		var upd events.BetLiveUpdated
		if err := json.Unmarshal(payload, &upd); err != nil {
			log.Printf("ws subscriber unmarshal error: %v", err)
			return
		}
		hub.BroadcastBetUpdate(upd)
	}
}
