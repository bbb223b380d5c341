package fanout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// RedisBroadcaster publica eventos de fan-out no canal Redis Pub/Sub
// consumido pelo hub WebSocket do tracker-service. Também faz write-through
// do snapshot em chave Redis para leitura direta pelos handlers HTTP.
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBroadcaster(r *redis.Client, channel string, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel, log: log}
}

func snapshotKey(kind string) string { return "live:snapshot:" + kind }

// PublishSnapshot envia o evento snapshot-updated e atualiza a chave de cache.
func (b *RedisBroadcaster) PublishSnapshot(ctx context.Context, snap events.Snapshot) error {
	payload, _ := json.Marshal(events.SnapshotUpdated{
		Type:     events.TypeSnapshotUpdated,
		Snapshot: snap,
	})

	if err := b.r.Set(ctx, snapshotKey("live"), payloadSnapshot(snap), 2*time.Minute).Err(); err != nil {
		b.log.Warn("snapshot write-through failed", zap.Error(err))
	}

	return b.r.Publish(ctx, b.channel, payload).Err()
}

// PublishScheduleSnapshot só atualiza a chave de cache (tabela não gera evento).
func (b *RedisBroadcaster) PublishScheduleSnapshot(ctx context.Context, snap events.Snapshot) error {
	return b.r.Set(ctx, snapshotKey("schedule"), payloadSnapshot(snap), 5*time.Minute).Err()
}

// PublishBetUpdate envia o evento bet-live-updated para os clientes WS.
func (b *RedisBroadcaster) PublishBetUpdate(ctx context.Context, upd events.BetLiveUpdated) error {
	payload, _ := json.Marshal(upd)
	return b.r.Publish(ctx, b.channel, payload).Err()
}

func payloadSnapshot(snap events.Snapshot) []byte {
	bts, _ := json.Marshal(snap)
	return bts
}
