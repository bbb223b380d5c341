package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

const apiSportsSource = "api-sports"

// APISports consome a API v3 do api-sports.io. O payload de fixture/teams/goals
// é aninhado, bem diferente do football-data; o normalizador resolve.
type APISports struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Log     *zap.Logger
}

var _ Provider = (*APISports)(nil)

func NewAPISports(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *APISports {
	return &APISports{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

func (a *APISports) Name() string { return apiSportsSource }

func (a *APISports) FetchLive(ctx context.Context) events.Snapshot {
	return a.fetch(ctx, a.BaseURL+"/fixtures?live=all")
}

func (a *APISports) FetchSchedule(ctx context.Context) events.Snapshot {
	today := time.Now().UTC().Format("2006-01-02")
	return a.fetch(ctx, a.BaseURL+"/fixtures?date="+today)
}

func (a *APISports) fetch(ctx context.Context, url string) events.Snapshot {
	now := time.Now().UTC()

	if a.APIKey == "" {
		return events.NewSnapshot(nil, events.SourceNone, now)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return events.NewSnapshot(nil, events.SourceError, now)
	}
	req.Header.Set("x-apisports-key", a.APIKey)

	resp, err := a.HTTP.Do(req)
	if err != nil {
		a.Log.Warn("api-sports request failed", zap.Error(err))
		return events.NewSnapshot(nil, events.SourceError, now)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		a.Log.Warn("api-sports rate limit hit")
		return events.NewSnapshot(nil, events.SourceRateLimited, now)
	}
	if resp.StatusCode != http.StatusOK {
		a.Log.Warn("api-sports unexpected status", zap.Int("status", resp.StatusCode))
		return events.NewSnapshot(nil, events.SourceError, now)
	}

	var payload struct {
		Response []map[string]any `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		a.Log.Warn("api-sports decode failed", zap.Error(err))
		return events.NewSnapshot(nil, events.SourceError, now)
	}

	matches := make([]events.LiveMatch, 0, len(payload.Response))
	for _, raw := range payload.Response {
		matches = append(matches, NormalizeMatch(raw, apiSportsSource))
	}

	return events.NewSnapshot(matches, apiSportsSource, now)
}
