package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// SportyBet busca bilhetes compartilhados pela API pública da SportyBet
// O endpoint de share não exige autenticação, apenas headers de navegador
type SportyBet struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewSportyBet(baseURL string, timeout time.Duration, log *zap.Logger) *SportyBet {
	return &SportyBet{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (s *SportyBet) Platform() string { return "sportybet" }

// Payload bruto retornado pela API de share
type sportyEnvelope struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type sportyTicketData struct {
	Outcomes []sportyOutcome `json:"outcomes"`
	Ticket   struct {
		Selections []struct {
			OutcomeID string `json:"outcomeId"`
		} `json:"selections"`
		Stake        json.Number `json:"stake"`
		MaxWinAmount json.Number `json:"maxWinAmount"`
	} `json:"ticket"`
	Stake        json.Number `json:"stake"`
	StakeAmount  json.Number `json:"stakeAmount"`
	MaxWinAmount json.Number `json:"maxWinAmount"`
}

type sportyOutcome struct {
	EventID           string `json:"eventId"`
	HomeTeamName      string `json:"homeTeamName"`
	AwayTeamName      string `json:"awayTeamName"`
	EstimateStartTime int64  `json:"estimateStartTime"`
	MatchStatus       string `json:"matchStatus"`
	Sport             struct {
		Category struct {
			Tournament struct {
				Name string `json:"name"`
			} `json:"tournament"`
		} `json:"category"`
	} `json:"sport"`
	Markets []sportyMarket `json:"markets"`
}

type sportyMarket struct {
	Desc     string `json:"desc"`
	Name     string `json:"name"`
	Outcomes []struct {
		ID   string      `json:"id"`
		Desc string      `json:"desc"`
		Name string      `json:"name"`
		Odds json.Number `json:"odds"`
	} `json:"outcomes"`
}

// Parse busca o bilhete pelo bookingCode e converte para o modelo interno
func (s *SportyBet) Parse(ctx context.Context, bookingCode string) (events.TrackedBet, error) {
	data, err := s.fetchTicket(ctx, bookingCode)
	if err != nil {
		return events.TrackedBet{}, err
	}
	return s.mapTicket(bookingCode, data), nil
}

func (s *SportyBet) fetchTicket(ctx context.Context, bookingCode string) (*sportyTicketData, error) {
	url := fmt.Sprintf("%s/api/ng/orders/share/%s?_t=%d", s.baseURL, bookingCode, time.Now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://www.sportybet.com/")
	req.Header.Set("Origin", "https://www.sportybet.com")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sportybet request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sportybet request failed: %d", resp.StatusCode)
	}

	var env sportyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("sportybet decode: %w", err)
	}
	// code != 0 indica bookingCode inválido ou expirado
	if env.Code != nil && *env.Code != 0 {
		if env.Msg != "" {
			return nil, fmt.Errorf("sportybet: %s", env.Msg)
		}
		return nil, fmt.Errorf("invalid sportybet booking code")
	}

	var data sportyTicketData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("sportybet decode data: %w", err)
		}
	}
	return &data, nil
}

func (s *SportyBet) mapTicket(bookingCode string, data *sportyTicketData) events.TrackedBet {
	selections := make([]events.BetSelection, 0, len(data.Outcomes))
	totalOdds := 1.0

	for idx, outcome := range data.Outcomes {
		// Localiza o outcome escolhido pelo apostador dentro do primeiro mercado
		var selectedID string
		if idx < len(data.Ticket.Selections) {
			selectedID = data.Ticket.Selections[idx].OutcomeID
		}

		var market sportyMarket
		if len(outcome.Markets) > 0 {
			market = outcome.Markets[0]
		}

		var desc string
		var odds float64
		if len(market.Outcomes) > 0 {
			chosen := market.Outcomes[0]
			for _, o := range market.Outcomes {
				if o.ID == selectedID {
					chosen = o
					break
				}
			}
			if v, err := chosen.Odds.Float64(); err == nil {
				odds = v
			}
			desc = chosen.Desc
			if desc == "" {
				desc = chosen.Name
			}
		}
		if odds > 0 {
			totalOdds *= odds
		}

		marketName := market.Desc
		if marketName == "" {
			marketName = market.Name
		}
		league := outcome.Sport.Category.Tournament.Name
		if league == "" {
			league = "Unknown"
		}

		var start *time.Time
		if outcome.EstimateStartTime > 0 {
			t := time.UnixMilli(outcome.EstimateStartTime).UTC()
			start = &t
		}

		selections = append(selections, events.BetSelection{
			MatchID:   outcome.EventID,
			HomeTeam:  outcome.HomeTeamName,
			AwayTeam:  outcome.AwayTeamName,
			League:    league,
			Market:    marketName,
			Selection: desc,
			Odds:      odds,
			StartTime: start,
		})
	}

	totalOdds = math.Round(totalOdds*100) / 100

	stake := firstNumber(data.Stake, data.Ticket.Stake, data.StakeAmount)
	potentialWin := firstNumber(data.MaxWinAmount, data.Ticket.MaxWinAmount)
	if potentialWin == 0 && stake > 0 {
		potentialWin = math.Round(stake*totalOdds*100) / 100
	}

	return events.TrackedBet{
		BookingCode:  bookingCode,
		Platform:     s.Platform(),
		Status:       events.BetPending,
		TotalOdds:    totalOdds,
		Stake:        stake,
		PotentialWin: potentialWin,
		Currency:     "NGN",
		Selections:   selections,
	}
}

// firstNumber retorna o primeiro valor numérico não-zero entre os candidatos
func firstNumber(candidates ...json.Number) float64 {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, err := strconv.ParseFloat(c.String(), 64); err == nil && v != 0 {
			return v
		}
	}
	return 0
}
