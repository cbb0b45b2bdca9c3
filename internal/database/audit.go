package database

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crashflight/internal/game"
)

// AuditStore persists round outcomes and settled bets from engine events.
// It consumes the event stream on its own goroutine so the engine never
// blocks on storage.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Consume drains engine events until the channel closes or ctx ends.
func (a *AuditStore) Consume(ctx context.Context, events <-chan game.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.handle(ctx, ev)
		}
	}
}

func (a *AuditStore) handle(ctx context.Context, ev game.Event) {
	switch ev.Type {
	case game.EventRoundCrashed:
		if err := a.insertRound(ctx, ev); err != nil {
			log.Printf("[AUDIT] round %d insert failed: %v", ev.RoundID, err)
		}
	case game.EventBetSettled:
		if err := a.insertBet(ctx, ev); err != nil {
			log.Printf("[AUDIT] bet insert failed (round %d): %v", ev.RoundID, err)
		}
	}
}

func (a *AuditStore) insertRound(ctx context.Context, ev game.Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.pool.Exec(ctx, `
		INSERT INTO rounds (round_id, crash_point, server_seed, client_seed, commitment, nonce, crashed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (round_id) DO NOTHING`,
		ev.RoundID, ev.CrashPoint, ev.ServerSeed, ev.ClientSeed, game.HashCommitment(ev.ServerSeed), ev.Nonce, ev.At)
	return err
}

func (a *AuditStore) insertBet(ctx context.Context, ev game.Event) error {
	if ev.Bet == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.pool.Exec(ctx, `
		INSERT INTO bets (bet_id, round_id, player_id, stake, auto_cashout, status, cashout_multiplier, payout, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (bet_id) DO UPDATE
		SET status = EXCLUDED.status,
		    cashout_multiplier = EXCLUDED.cashout_multiplier,
		    payout = EXCLUDED.payout,
		    settled_at = EXCLUDED.settled_at`,
		ev.Bet.ID, ev.RoundID, ev.Bet.PlayerID, ev.Bet.Stake, ev.Bet.AutoCashout,
		string(ev.Bet.Status), ev.Bet.CashoutMultiplier, ev.Bet.Payout, ev.At)
	return err
}
