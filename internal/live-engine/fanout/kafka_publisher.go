package fanout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica atualizações por aposta no tópico bet_live_updates,
// consumido pelo notification-worker.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(w *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log}
}

// PublishBetUpdate serializa o evento e envia com a chave BetID, garantindo
// ordem por aposta dentro da partição.
func (p *KafkaPublisher) PublishBetUpdate(ctx context.Context, upd events.BetLiveUpdated) error {
	upd.TsUnixMs = time.Now().UnixMilli()
	value, err := json.Marshal(upd)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(upd.BetID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish bet live update", zap.Error(err))
		return err
	}

	p.log.Debug("published bet live update", zap.String("bet_id", upd.BetID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
