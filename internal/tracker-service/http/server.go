package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	enginecache "github.com/radieske/bet-tracker-platform-poc/internal/live-engine/cache"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/correlator"
	"github.com/radieske/bet-tracker-platform-poc/internal/live-engine/engine"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/dto"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/parser"
	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/repo"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// API expõe os endpoints REST de rastreamento de bilhetes e dados ao vivo
// Snapshots são servidos preferencialmente do Redis, com fallback no engine
type API struct {
	Log     *zap.Logger
	Repo    *repo.Postgres
	Parsers *parser.Registry
	Engine  *engine.Engine
	Corr    *correlator.Correlator
	Redis   *redis.Client
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS)

	r.Post("/v1/bets", a.trackBet)           // Importa bilhete por bookingCode
	r.Get("/v1/bets", a.listBets)            // Lista bilhetes com overlay ao vivo
	r.Get("/v1/bets/{id}", a.getBet)         // Detalhe de um bilhete
	r.Patch("/v1/bets/{id}", a.updateStatus) // Troca status (pending|live|settled)
	r.Delete("/v1/bets/{id}", a.deleteBet)   // Remove bilhete e assinaturas
	r.Post("/v1/bets/{id}/subscriptions", a.createSubscription)
	r.Get("/v1/bets/{id}/subscriptions", a.listSubscriptions)
	r.Delete("/v1/subscriptions/{id}", a.deleteSubscription)
	r.Get("/v1/live", a.getLive)         // Snapshot de partidas ao vivo
	r.Get("/v1/schedule", a.getSchedule) // Snapshot da agenda
	r.Get("/v1/audit", a.listAudit)      // Trilha de auditoria
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// trackBet importa um bilhete: resolve o parser da plataforma, busca o
// bilhete na casa de apostas e persiste com as seleções
func (a *API) trackBet(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.BookingCode == "" || req.Platform == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bookingCode and platform are required"})
		return
	}

	p, err := a.Parsers.Get(req.Platform)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	parsed, err := p.Parse(r.Context(), req.BookingCode)
	if err != nil {
		a.Log.Warn("ticket parse failed",
			zap.String("platform", req.Platform),
			zap.String("bookingCode", req.BookingCode),
			zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if len(parsed.Selections) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "ticket has no selections"})
		return
	}

	bet, err := a.Repo.InsertBet(r.Context(), &parsed)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	_ = a.Repo.AddEventLog(r.Context(), "bet_tracked", map[string]any{
		"betId":       bet.ID,
		"platform":    bet.Platform,
		"bookingCode": bet.BookingCode,
		"selections":  len(bet.Selections),
	})

	writeJSON(w, http.StatusCreated, bet)
}

// listBets retorna os bilhetes persistidos com o overlay ao vivo aplicado
// O overlay nunca é persistido, vem do snapshot corrente do engine
func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := a.Repo.ListBets(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	snap := a.Engine.Snapshot(r.Context(), enginecache.KindLive)
	if !snap.Failed() {
		enriched := a.Corr.Correlate(snap, bets)
		byID := make(map[string]events.TrackedBet, len(enriched))
		for _, b := range enriched {
			byID[b.ID] = b
		}
		for i, b := range bets {
			if e, ok := byID[b.ID]; ok {
				bets[i] = e
			}
		}
	}

	writeJSON(w, http.StatusOK, bets)
}

func (a *API) getBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	bet, err := a.Repo.GetBet(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	snap := a.Engine.Snapshot(r.Context(), enginecache.KindLive)
	if !snap.Failed() {
		if enriched := a.Corr.Correlate(snap, []events.TrackedBet{bet}); len(enriched) == 1 {
			bet = enriched[0]
		}
	}

	writeJSON(w, http.StatusOK, bet)
}

func (a *API) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateBetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	switch req.Status {
	case events.BetPending, events.BetLive, events.BetSettled:
	default:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid status"})
		return
	}

	if err := a.Repo.UpdateBetStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	_ = a.Repo.AddEventLog(r.Context(), "bet_status_changed", map[string]any{
		"betId":  id,
		"status": req.Status,
	})

	writeJSON(w, http.StatusOK, dto.BetStatusResponse{BetID: id, Status: req.Status})
}

func (a *API) deleteBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := a.Repo.DeleteBet(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	_ = a.Repo.AddEventLog(r.Context(), "bet_deleted", map[string]any{"betId": id})

	writeJSON(w, http.StatusOK, dto.DeletedResponse{BetID: id, Deleted: true})
}

func (a *API) createSubscription(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	var req dto.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	switch req.Channel {
	case "console":
	case "webhook", "telegram":
		if req.Target == "" {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "target is required for " + req.Channel})
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid channel"})
		return
	}

	// Garante que o bilhete existe antes de criar a assinatura
	if _, err := a.Repo.GetBet(r.Context(), betID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	sub, err := a.Repo.CreateSubscription(r.Context(), betID, req.Channel, req.Target)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	_ = a.Repo.AddEventLog(r.Context(), "subscription_created", sub)

	writeJSON(w, http.StatusCreated, sub)
}

func (a *API) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	subs, err := a.Repo.ListSubscriptionsByBet(r.Context(), betID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (a *API) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := a.Repo.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// getLive serve o snapshot ao vivo, preferencialmente do Redis
func (a *API) getLive(w http.ResponseWriter, r *http.Request) {
	a.serveSnapshot(w, r, enginecache.KindLive)
}

// getSchedule serve o snapshot da agenda de partidas
func (a *API) getSchedule(w http.ResponseWriter, r *http.Request) {
	a.serveSnapshot(w, r, enginecache.KindSchedule)
}

func (a *API) serveSnapshot(w http.ResponseWriter, r *http.Request, kind enginecache.Kind) {
	if a.Redis != nil {
		if snap, ok := a.snapshotFromRedis(r, kind); ok {
			writeJSON(w, http.StatusOK, snap)
			return
		}
	}
	writeJSON(w, http.StatusOK, a.Engine.Snapshot(r.Context(), kind))
}

// snapshotFromRedis tenta o write-through deixado pelo fanout do engine
func (a *API) snapshotFromRedis(r *http.Request, kind enginecache.Kind) (events.Snapshot, bool) {
	raw, err := a.Redis.Get(r.Context(), "live:snapshot:"+string(kind)).Bytes()
	if err != nil {
		return events.Snapshot{}, false
	}

	var snap events.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		a.Log.Warn("bad cached snapshot", zap.Error(err))
		return events.Snapshot{}, false
	}
	return snap, true
}

func (a *API) listAudit(w http.ResponseWriter, r *http.Request) {
	logs, err := a.Repo.ListEventLogs(r.Context(), 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
