package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

const footballDataSource = "football-data"

// FootballData consome a API v4 do football-data.org.
// Live: /v4/matches?status=LIVE,IN_PLAY,PAUSED
// Tabela: /v4/matches?dateFrom=...&dateTo=... (janela de dois dias)
type FootballData struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Log     *zap.Logger
}

var _ Provider = (*FootballData)(nil)

func NewFootballData(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *FootballData {
	return &FootballData{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

func (f *FootballData) Name() string { return footballDataSource }

func (f *FootballData) FetchLive(ctx context.Context) events.Snapshot {
	return f.fetch(ctx, f.BaseURL+"/v4/matches?status=LIVE,IN_PLAY,PAUSED")
}

func (f *FootballData) FetchSchedule(ctx context.Context) events.Snapshot {
	from := time.Now().UTC()
	to := from.AddDate(0, 0, 2)
	url := f.BaseURL + "/v4/matches?dateFrom=" + from.Format("2006-01-02") + "&dateTo=" + to.Format("2006-01-02")
	return f.fetch(ctx, url)
}

// fetch executa um único round trip e converte qualquer falha em snapshot
// de erro. HTTP 429 é um modo de falha distinto (source "rate-limited").
func (f *FootballData) fetch(ctx context.Context, url string) events.Snapshot {
	now := time.Now().UTC()

	if f.APIKey == "" {
		f.Log.Warn("football-data api key not set")
		return events.NewSnapshot(nil, events.SourceNone, now)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return events.NewSnapshot(nil, events.SourceError, now)
	}
	req.Header.Set("X-Auth-Token", f.APIKey)

	resp, err := f.HTTP.Do(req)
	if err != nil {
		f.Log.Warn("football-data request failed", zap.Error(err))
		return events.NewSnapshot(nil, events.SourceError, now)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		f.Log.Warn("football-data rate limit hit")
		return events.NewSnapshot(nil, events.SourceRateLimited, now)
	}
	if resp.StatusCode != http.StatusOK {
		f.Log.Warn("football-data unexpected status", zap.Int("status", resp.StatusCode))
		return events.NewSnapshot(nil, events.SourceError, now)
	}

	var payload struct {
		Matches []map[string]any `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		f.Log.Warn("football-data decode failed", zap.Error(err))
		return events.NewSnapshot(nil, events.SourceError, now)
	}

	matches := make([]events.LiveMatch, 0, len(payload.Matches))
	for _, raw := range payload.Matches {
		matches = append(matches, NormalizeMatch(raw, footballDataSource))
	}

	return events.NewSnapshot(matches, footballDataSource, now)
}
