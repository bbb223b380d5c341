package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/cache"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/correlator"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// BetSource fornece as apostas rastreadas a cada tick (repo Postgres em
// produção, fake nos testes).
type BetSource interface {
	ListBets(ctx context.Context) ([]events.TrackedBet, error)
}

// Publisher recebe os eventos de fan-out de um tick.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap events.Snapshot) error
	PublishScheduleSnapshot(ctx context.Context, snap events.Snapshot) error
	PublishBetUpdate(ctx context.Context, upd events.BetLiveUpdated) error
}

// BetStream é o destino adicional das atualizações por aposta (Kafka, para o
// notification-worker). Opcional.
type BetStream interface {
	PublishBetUpdate(ctx context.Context, upd events.BetLiveUpdated) error
}

// Engine dirige o pipeline fetch -> correlate -> publish em intervalo fixo.
//
// Dois estados: parado e rodando. Start é idempotente e executa o primeiro
// tick imediatamente, para o primeiro cliente não esperar um intervalo
// inteiro. Stop é idempotente e impede novos ticks; um tick em andamento
// termina sozinho (só atualiza o cache compartilhado, inofensivo após stop).
// Falha dentro de um tick é logada e nunca derruba o scheduler.
type Engine struct {
	log       *zap.Logger
	cache     *cache.SnapshotCache
	corr      *correlator.Correlator
	bets      BetSource
	publisher Publisher
	betStream BetStream
	interval  time.Duration

	// Callbacks de métricas (counters Prometheus registrados no main)
	OnTick      func()
	OnPublish   func()
	OnTickError func(stage string)

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	inTick   atomic.Bool
}

func New(
	log *zap.Logger,
	snapCache *cache.SnapshotCache,
	corr *correlator.Correlator,
	bets BetSource,
	publisher Publisher,
	betStream BetStream,
	interval time.Duration,
) *Engine {
	return &Engine{
		log:       log,
		cache:     snapCache,
		corr:      corr,
		bets:      bets,
		publisher: publisher,
		betStream: betStream,
		interval:  interval,
	}
}

// Start liga o loop de polling. Chamar com o engine já rodando é no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	stop := e.stopChan
	e.mu.Unlock()

	e.log.Info("live engine starting", zap.Duration("interval", e.interval))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		// Primeiro tick imediato
		e.tick()

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-stop:
				return
			}
		}
	}()
}

// Stop desliga o loop. Chamar com o engine parado é no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopChan)
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Info("live engine stopped")
}

// Running informa se o scheduler está ativo (usado no healthz).
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Snapshot expõe o cache para a camada HTTP.
func (e *Engine) Snapshot(ctx context.Context, kind cache.Kind) events.Snapshot {
	return e.cache.Get(ctx, kind)
}

// tick executa um ciclo completo. Se o tick anterior ainda estiver rodando
// (upstream lento), este é pulado para não acumular chamadas concorrentes.
func (e *Engine) tick() {
	if !e.inTick.CompareAndSwap(false, true) {
		e.log.Warn("previous tick still running, skipping")
		return
	}
	defer e.inTick.Store(false)

	if e.OnTick != nil {
		e.OnTick()
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.interval)
	defer cancel()

	start := time.Now()

	// 1) Snapshot ao vivo (cache decide se precisa de fetch)
	snap := e.cache.Get(ctx, cache.KindLive)

	// 2) Tabela de jogos, para as leituras HTTP ficarem quentes
	sched := e.cache.Get(ctx, cache.KindSchedule)
	if !sched.Failed() {
		if err := e.publisher.PublishScheduleSnapshot(ctx, sched); err != nil {
			e.log.Warn("schedule publish failed", zap.Error(err))
			e.tickError("publish_schedule")
		}
	}

	if snap.Failed() {
		e.log.Info("no live data this tick", zap.String("source", snap.Source))
		return
	}

	if err := e.publisher.PublishSnapshot(ctx, snap); err != nil {
		e.log.Warn("snapshot publish failed", zap.Error(err))
		e.tickError("publish_snapshot")
	}

	// 3) Correlação contra as apostas rastreadas
	bets, err := e.bets.ListBets(ctx)
	if err != nil {
		e.log.Warn("list bets failed", zap.Error(err))
		e.tickError("list_bets")
		return
	}

	enriched := e.corr.Correlate(snap, bets)
	for _, bet := range enriched {
		upd := events.BetLiveUpdated{
			Type:     events.TypeBetLiveUpdated,
			BetID:    bet.ID,
			Bet:      bet,
			TsUnixMs: time.Now().UnixMilli(),
		}
		if err := e.publisher.PublishBetUpdate(ctx, upd); err != nil {
			e.log.Warn("bet update publish failed", zap.String("bet_id", bet.ID), zap.Error(err))
			e.tickError("publish_bet")
			continue
		}
		if e.betStream != nil {
			if err := e.betStream.PublishBetUpdate(ctx, upd); err != nil {
				e.log.Warn("bet stream publish failed", zap.String("bet_id", bet.ID), zap.Error(err))
				e.tickError("kafka_bet")
			}
		}
		if e.OnPublish != nil {
			e.OnPublish()
		}
	}

	e.log.Info("tick complete",
		zap.Int("liveMatches", snap.Count),
		zap.Int("betsEnriched", len(enriched)),
		zap.Duration("took", time.Since(start)),
	)
}

func (e *Engine) tickError(stage string) {
	if e.OnTickError != nil {
		e.OnTickError(stage)
	}
}
