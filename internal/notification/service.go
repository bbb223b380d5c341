package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker-platform-poc/internal/tracker-service/repo"
	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// SubscriptionSource fornece as assinaturas de notificação de um bilhete
type SubscriptionSource interface {
	ListSubscriptionsByBet(ctx context.Context, betID string) ([]repo.Subscription, error)
}

// Service entrega atualizações de bilhete nos canais assinados
// Canais suportados: console (sempre disponível), webhook e telegram
type Service struct {
	log    *zap.Logger
	subs   SubscriptionSource
	http   *http.Client
	tgBase string // ex: https://api.telegram.org/bot<token>
}

func NewService(log *zap.Logger, subs SubscriptionSource, telegramToken string) *Service {
	s := &Service{
		log:  log,
		subs: subs,
		http: &http.Client{Timeout: 5 * time.Second},
	}
	if telegramToken != "" {
		s.tgBase = "https://api.telegram.org/bot" + telegramToken
	}
	return s
}

// Notify entrega uma atualização para todos os canais assinados do bilhete
// Falha de entrega em um canal não impede os demais
func (s *Service) Notify(ctx context.Context, upd events.BetLiveUpdated) error {
	subs, err := s.subs.ListSubscriptionsByBet(ctx, upd.BetID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	subject, message := formatUpdate(upd)

	var failed int
	for _, sub := range subs {
		var err error
		switch strings.ToLower(sub.Channel) {
		case "webhook":
			err = s.sendWebhook(ctx, sub.Target, subject, message)
		case "telegram":
			err = s.sendTelegram(ctx, sub.Target, subject, message)
		default:
			s.logNotification(sub.Target, subject, message)
		}
		if err != nil {
			failed++
			s.log.Warn("notification send failed",
				zap.String("channel", sub.Channel),
				zap.String("betId", upd.BetID),
				zap.Error(err))
		}
	}
	if failed == len(subs) && failed > 0 {
		return errors.New("all notification channels failed")
	}
	return nil
}

// formatUpdate monta assunto e corpo a partir das seleções enriquecidas
func formatUpdate(upd events.BetLiveUpdated) (string, string) {
	subject := "Bet update: " + upd.BetID

	var b strings.Builder
	for _, sel := range upd.Bet.Selections {
		if sel.Live == nil {
			continue
		}
		score := "-"
		if sel.Live.HomeScore != nil && sel.Live.AwayScore != nil {
			score = fmt.Sprintf("%d x %d", *sel.Live.HomeScore, *sel.Live.AwayScore)
		}
		fmt.Fprintf(&b, "%s vs %s: %s (%s)\n",
			sel.HomeTeam, sel.AwayTeam, score, sel.Live.Status)
	}
	if b.Len() == 0 {
		b.WriteString("no live selections\n")
	}
	return subject, strings.TrimRight(b.String(), "\n")
}

func (s *Service) logNotification(target, subject, message string) {
	s.log.Info("notification",
		zap.String("channel", "console"),
		zap.String("target", target),
		zap.String("subject", subject),
		zap.String("message", message))
}

func (s *Service) sendWebhook(ctx context.Context, target, subject, message string) error {
	body, _ := json.Marshal(map[string]string{
		"subject":   subject,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook http " + resp.Status)
	}
	return nil
}

func (s *Service) sendTelegram(ctx context.Context, chatID, subject, message string) error {
	if s.tgBase == "" {
		return errors.New("telegram token not configured")
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", subject+"\n"+message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.tgBase+"/sendMessage", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("telegram http " + resp.Status)
	}
	return nil
}
