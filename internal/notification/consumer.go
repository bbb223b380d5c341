package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/bet-tracker-platform-poc/internal/shared/kafka"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Consumer consome atualizações de bilhete do Kafka e despacha notificações
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Consumer struct {
	Log     *zap.Logger
	Reader  *kafka.Reader
	Service *Service
	DLQ     *kafka.Writer // opcional

	OnConsumed func()       // métricas (counter++)
	OnNotified func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e despacho de notificações
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			c.Log.Warn("kafka read failed", zap.Error(err))
			if c.OnError != nil {
				c.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if c.OnConsumed != nil {
			c.OnConsumed() // callback de métrica: mensagem consumida
		}

		var upd events.BetLiveUpdated
		if err := json.Unmarshal(m.Value, &upd); err != nil {
			c.Log.Warn("invalid message", zap.Error(err))
			if c.OnError != nil {
				c.OnError("decode")
			}
			continue
		}

		if err := c.Service.Notify(ctx, upd); err != nil {
			c.Log.Warn("notify failed", zap.String("betId", upd.BetID), zap.Error(err))
			if c.OnError != nil {
				c.OnError("notify")
			}
			// Entrega falhou em todos os canais: envia para a DLQ
			if c.DLQ != nil {
				if derr := sharedkafka.WriteJSON(ctx, c.DLQ, upd.BetID, m.Value); derr != nil {
					c.Log.Error("dlq write failed", zap.Error(derr))
				}
			}
			continue
		}

		if c.OnNotified != nil {
			c.OnNotified() // callback de métrica: notificação entregue
		}
	}
}
