package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	lcache "github.com/radieske/bet-tracker-platform-poc/internal/live-engine/cache"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/correlator"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/engine"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/fanout"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/provider"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/cache"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/config"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/db"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/kafka"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/logger"
	thttp "github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/http"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/parser"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/repo"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/ws"
)

// Métricas Prometheus do engine ao vivo
var (
	engineTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_engine_ticks_total",
		Help: "Total de ciclos do live engine",
	})
	enginePublishes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_engine_bet_updates_total",
		Help: "Total de atualizações de bilhete publicadas",
	})
	engineErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_engine_errors_total",
		Help: "Erros do live engine por etapa",
	}, []string{"stage"})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	prometheus.MustRegister(engineTicks, enginePublishes, engineErrors)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_live_updates)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetLiveUpdates)
	defer writer.Close()

	// deps
	repository := repo.NewPostgres(pg)
	parsers := parser.NewRegistry(
		parser.NewSportyBet(cfg.SportyBetBaseURL, cfg.UpstreamTimeout, log),
	)

	// Cadeia de provedores: football-data primeiro, api-sports como fallback
	chain := provider.NewChain(log,
		provider.NewFootballData(cfg.FootballDataBaseURL, cfg.FootballDataAPIKey, cfg.UpstreamTimeout, log),
		provider.NewAPISports(cfg.APISportsBaseURL, cfg.APISportsAPIKey, cfg.UpstreamTimeout, log),
	)

	snapCache := lcache.New(chain, lcache.RealClock(), cfg.LiveTTL, cfg.ScheduleTTL, log)
	corr := correlator.New(log)
	broadcaster := fanout.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel, log)
	betStream := fanout.NewKafkaPublisher(writer, log)

	eng := engine.New(log, snapCache, corr, repository, broadcaster, betStream, cfg.LivePollInterval)
	eng.OnTick = engineTicks.Inc
	eng.OnPublish = enginePublishes.Inc
	eng.OnTickError = func(stage string) { engineErrors.WithLabelValues(stage).Inc() }

	eng.Start()
	defer eng.Stop()

	// WebSocket hub alimentado pelo canal Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público
	api := &thttp.API{
		Log:     log,
		Repo:    repository,
		Parsers: parsers,
		Engine:  eng,
		Corr:    corr,
		Redis:   rdb,
	}
	appMux := http.NewServeMux()
	appMux.Handle("/", api.Router())
	appMux.HandleFunc("/ws", hub.HandleWS)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: appMux,
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pg.PingContext(hctx); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		if !eng.Running() {
			http.Error(w, "engine stopped", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	go func() {
		log.Info("tracker-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutCtx)
}
