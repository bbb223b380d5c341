package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/internal/shared/config"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/logger"
	"github.com/radieske/bet-tracker-platform-poc/internal/shared/metrics"
)

// Partida simulada no formato de resposta da football-data
type simMatch struct {
	ID       int           `json:"id"`
	UTCDate  string        `json:"utcDate"`
	Status   string        `json:"status"`
	HomeTeam simTeam       `json:"homeTeam"`
	AwayTeam simTeam       `json:"awayTeam"`
	Comp     simComp       `json:"competition"`
	Score    simScoreBlock `json:"score"`
}

type simTeam struct {
	Name string `json:"name"`
}

type simComp struct {
	Name string `json:"name"`
}

type simScoreBlock struct {
	FullTime simScore `json:"fullTime"`
}

type simScore struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

var (
	// Métricas Prometheus para monitoramento das respostas simuladas
	requestsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_sim_requests_total",
		Help: "Requisições servidas pelo simulador por status HTTP",
	}, []string{"code"})
	scoreMutations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "provider_sim_score_mutations_total",
		Help: "Total de mutações de placar geradas",
	})
)

// catalog mantém o estado das partidas simuladas, protegido por mutex
// O ticker de mutação altera placares e status ao longo do tempo
type catalog struct {
	mu      sync.RWMutex
	matches []simMatch
	log     *zap.Logger
}

func intp(n int) *int { return &n }

func newCatalog(log *zap.Logger) *catalog {
	now := time.Now().UTC()
	return &catalog{
		log: log,
		matches: []simMatch{
			{ID: 1001, Status: "IN_PLAY", UTCDate: now.Format(time.RFC3339),
				HomeTeam: simTeam{"Flamengo"}, AwayTeam: simTeam{"Palmeiras"},
				Comp:  simComp{"Brasileirão Série A"},
				Score: simScoreBlock{simScore{intp(0), intp(0)}}},
			{ID: 1002, Status: "IN_PLAY", UTCDate: now.Format(time.RFC3339),
				HomeTeam: simTeam{"Arsenal FC"}, AwayTeam: simTeam{"Chelsea FC"},
				Comp:  simComp{"Premier League"},
				Score: simScoreBlock{simScore{intp(1), intp(0)}}},
			{ID: 1003, Status: "PAUSED", UTCDate: now.Format(time.RFC3339),
				HomeTeam: simTeam{"Grêmio"}, AwayTeam: simTeam{"Internacional"},
				Comp:  simComp{"Brasileirão Série A"},
				Score: simScoreBlock{simScore{intp(2), intp(2)}}},
			{ID: 2001, Status: "TIMED", UTCDate: now.Add(6 * time.Hour).Format(time.RFC3339),
				HomeTeam: simTeam{"São Paulo"}, AwayTeam: simTeam{"Corinthians"},
				Comp:  simComp{"Brasileirão Série A"},
				Score: simScoreBlock{simScore{nil, nil}}},
			{ID: 2002, Status: "SCHEDULED", UTCDate: now.Add(26 * time.Hour).Format(time.RFC3339),
				HomeTeam: simTeam{"Liverpool FC"}, AwayTeam: simTeam{"Everton FC"},
				Comp:  simComp{"Premier League"},
				Score: simScoreBlock{simScore{nil, nil}}},
		},
	}
}

// mutate simula a evolução dos jogos: gols ocasionais e transições de status
func (c *catalog) mutate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.matches {
		m := &c.matches[i]
		switch m.Status {
		case "IN_PLAY":
			// 25% de chance de gol a cada mutação
			if rand.Intn(100) < 25 {
				if rand.Intn(2) == 0 {
					*m.Score.FullTime.Home++
				} else {
					*m.Score.FullTime.Away++
				}
				scoreMutations.Inc()
				c.log.Info("goal!",
					zap.String("home", m.HomeTeam.Name),
					zap.String("away", m.AwayTeam.Name),
					zap.Int("homeScore", *m.Score.FullTime.Home),
					zap.Int("awayScore", *m.Score.FullTime.Away))
			}
			// 5% de chance do jogo terminar
			if rand.Intn(100) < 5 {
				m.Status = "FINISHED"
			}
		case "PAUSED":
			// intervalo acaba eventualmente
			if rand.Intn(100) < 30 {
				m.Status = "IN_PLAY"
			}
		case "TIMED", "SCHEDULED":
			// 3% de chance do jogo começar
			if rand.Intn(100) < 3 {
				m.Status = "IN_PLAY"
				m.Score.FullTime.Home = intp(0)
				m.Score.FullTime.Away = intp(0)
			}
		}
	}
}

// snapshot retorna uma cópia filtrada por status (vazio = todas)
func (c *catalog) snapshot(statuses map[string]bool) []simMatch {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]simMatch, 0, len(c.matches))
	for _, m := range c.matches {
		if len(statuses) == 0 || statuses[m.Status] {
			cp := m
			if m.Score.FullTime.Home != nil {
				cp.Score.FullTime.Home = intp(*m.Score.FullTime.Home)
				cp.Score.FullTime.Away = intp(*m.Score.FullTime.Away)
			}
			out = append(out, cp)
		}
	}
	return out
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(requestsServed, scoreMutations)

	cat := newCatalog(log)

	// Muta o catálogo a cada 10 segundos
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			cat.mutate()
		}
	}()

	var requests atomic.Int64
	appMux := http.NewServeMux()

	// Formato football-data: GET /v4/matches?status=LIVE,IN_PLAY,PAUSED
	appMux.HandleFunc("/v4/matches", func(w http.ResponseWriter, r *http.Request) {
		// A cada 10 requisições devolve 429 para exercitar o fallback do cliente
		if requests.Add(1)%10 == 0 {
			requestsServed.WithLabelValues("429").Inc()
			http.Error(w, `{"message":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		statuses := map[string]bool{}
		if raw := r.URL.Query().Get("status"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				statuses[strings.TrimSpace(s)] = true
				// o filtro LIVE da football-data cobre IN_PLAY e PAUSED
				if s == "LIVE" {
					statuses["IN_PLAY"] = true
					statuses["PAUSED"] = true
				}
			}
		}

		requestsServed.WithLabelValues("200").Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": cat.snapshot(statuses),
		})
	})

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })
	defer metricsSrv.Close()
	log.Info("provider simulator (metrics) running", zap.String("addr", metricsSrv.Addr))

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("provider simulator (public) running",
		zap.String("addr", addr),
		zap.String("paths", "/v4/matches"),
	)
	if err := http.ListenAndServe(addr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
