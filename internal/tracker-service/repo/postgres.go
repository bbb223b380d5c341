package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/bet-tracker-platform-poc/pkg/contracts/events"
)

// Postgres implementa a persistência de bilhetes, assinaturas e auditoria
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de bilhetes
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InsertBet persiste o bilhete e suas seleções em uma única transação
func (p *Postgres) InsertBet(ctx context.Context, b *events.TrackedBet) (events.TrackedBet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return events.TrackedBet{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := *b
	out.ID = uuid.NewString()
	out.Status = events.BetPending
	out.CreatedAt = now
	out.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id,booking_code,platform,status,total_odds,stake,potential_win,currency,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		out.ID, out.BookingCode, out.Platform, out.Status,
		out.TotalOdds, out.Stake, out.PotentialWin, out.Currency, now, now,
	)
	if err != nil {
		return events.TrackedBet{}, err
	}

	// position preserva a ordem das pernas do bilhete original
	for i, sel := range out.Selections {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bet_selections (id,bet_id,position,match_id,home_team,away_team,league,market,selection,odds,start_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			uuid.NewString(), out.ID, i, sel.MatchID, sel.HomeTeam, sel.AwayTeam,
			sel.League, sel.Market, sel.Selection, sel.Odds, sel.StartTime,
		)
		if err != nil {
			return events.TrackedBet{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return events.TrackedBet{}, err
	}
	return out, nil
}

// ListBets retorna todos os bilhetes com suas seleções, mais recentes primeiro
func (p *Postgres) ListBets(ctx context.Context) ([]events.TrackedBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,booking_code,platform,status,total_odds,stake,potential_win,currency,created_at,updated_at
		FROM bets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := []events.TrackedBet{}
	index := map[string]int{}
	for rows.Next() {
		var b events.TrackedBet
		if err := rows.Scan(&b.ID, &b.BookingCode, &b.Platform, &b.Status,
			&b.TotalOdds, &b.Stake, &b.PotentialWin, &b.Currency,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Selections = []events.BetSelection{}
		index[b.ID] = len(bets)
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bets) == 0 {
		return bets, nil
	}

	selRows, err := p.db.QueryContext(ctx, `
		SELECT bet_id,match_id,home_team,away_team,league,market,selection,odds,start_time
		FROM bet_selections ORDER BY bet_id, position`)
	if err != nil {
		return nil, err
	}
	defer selRows.Close()

	for selRows.Next() {
		var betID string
		var sel events.BetSelection
		var start sql.NullTime
		if err := selRows.Scan(&betID, &sel.MatchID, &sel.HomeTeam, &sel.AwayTeam,
			&sel.League, &sel.Market, &sel.Selection, &sel.Odds, &start); err != nil {
			return nil, err
		}
		if start.Valid {
			t := start.Time
			sel.StartTime = &t
		}
		if i, ok := index[betID]; ok {
			bets[i].Selections = append(bets[i].Selections, sel)
		}
	}
	return bets, selRows.Err()
}

// GetBet retorna um bilhete pelo id, com sql.ErrNoRows quando não existe
func (p *Postgres) GetBet(ctx context.Context, betID string) (events.TrackedBet, error) {
	var b events.TrackedBet
	err := p.db.QueryRowContext(ctx, `
		SELECT id,booking_code,platform,status,total_odds,stake,potential_win,currency,created_at,updated_at
		FROM bets WHERE id=$1`, betID).
		Scan(&b.ID, &b.BookingCode, &b.Platform, &b.Status,
			&b.TotalOdds, &b.Stake, &b.PotentialWin, &b.Currency,
			&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return events.TrackedBet{}, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT match_id,home_team,away_team,league,market,selection,odds,start_time
		FROM bet_selections WHERE bet_id=$1 ORDER BY position`, betID)
	if err != nil {
		return events.TrackedBet{}, err
	}
	defer rows.Close()

	b.Selections = []events.BetSelection{}
	for rows.Next() {
		var sel events.BetSelection
		var start sql.NullTime
		if err := rows.Scan(&sel.MatchID, &sel.HomeTeam, &sel.AwayTeam,
			&sel.League, &sel.Market, &sel.Selection, &sel.Odds, &start); err != nil {
			return events.TrackedBet{}, err
		}
		if start.Valid {
			t := start.Time
			sel.StartTime = &t
		}
		b.Selections = append(b.Selections, sel)
	}
	return b, rows.Err()
}

// UpdateBetStatus troca o status do bilhete (pending | live | settled)
func (p *Postgres) UpdateBetStatus(ctx context.Context, betID, status string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE bets SET status=$1, updated_at=NOW() WHERE id=$2`, status, betID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBet remove o bilhete, seleções e assinaturas associadas
func (p *Postgres) DeleteBet(ctx context.Context, betID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE bet_id=$1`, betID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bet_selections WHERE bet_id=$1`, betID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bets WHERE id=$1`, betID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// CreateSubscription vincula um canal de notificação a um bilhete
func (p *Postgres) CreateSubscription(ctx context.Context, betID, channel, target string) (Subscription, error) {
	sub := Subscription{
		ID:        uuid.NewString(),
		BetID:     betID,
		Channel:   channel,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id,bet_id,channel,target,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		sub.ID, sub.BetID, sub.Channel, sub.Target, sub.CreatedAt)
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// ListSubscriptionsByBet retorna as assinaturas de um bilhete
func (p *Postgres) ListSubscriptionsByBet(ctx context.Context, betID string) ([]Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,bet_id,channel,target,created_at
		FROM subscriptions WHERE bet_id=$1 ORDER BY created_at`, betID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []Subscription{}
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.BetID, &s.Channel, &s.Target, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeleteSubscription remove uma assinatura pelo id
func (p *Postgres) DeleteSubscription(ctx context.Context, subID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, subID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddEventLog grava uma entrada da trilha de auditoria com payload JSON
func (p *Postgres) AddEventLog(ctx context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO event_log (id,event_type,payload,created_at)
		VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), eventType, raw, time.Now().UTC())
	return err
}

// ListEventLogs retorna as entradas de auditoria, mais recentes primeiro
func (p *Postgres) ListEventLogs(ctx context.Context, limit int) ([]EventLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,event_type,payload,created_at
		FROM event_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []EventLog{}
	for rows.Next() {
		var e EventLog
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
