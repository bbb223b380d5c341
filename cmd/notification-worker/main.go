package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/internal/notification"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/config"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/db"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/kafka"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/logger"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/metrics"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/repo"
)

// Métricas Prometheus do worker de notificações
var (
	consumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_consumed_total",
		Help: "Mensagens consumidas do Kafka",
	})
	notified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_sent_total",
		Help: "Notificações entregues",
	})
	failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_errors_total",
		Help: "Erros do worker por etapa",
	}, []string{"stage"})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(consumed, notified, failures)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: leitura das assinaturas de notificação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: atualizações de bilhete geradas pelo live engine
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetLiveUpdates, "notification-worker")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicBetLiveUpdatesDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetLiveUpdatesDLQ)
		defer dlqWriter.Close()
	}

	repository := repo.NewPostgres(pg)
	service := notification.NewService(log, repository, cfg.TelegramBotToken)

	// Servidor HTTP para métricas Prometheus e healthcheck
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer metricsSrv.Close()
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	consumer := &notification.Consumer{
		Log:     log,
		Reader:  reader,
		Service: service,
		DLQ:     dlqWriter,

		OnConsumed: consumed.Inc,
		OnNotified: notified.Inc,
		OnError:    func(stage string) { failures.WithLabelValues(stage).Inc() },
	}

	log.Info("notification-worker started",
		zap.String("consume", cfg.TopicBetLiveUpdates),
		zap.String("dlq", cfg.TopicBetLiveUpdatesDLQ),
	)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer", zap.Error(err))
	}
	log.Info("notification-worker stopped")
}
