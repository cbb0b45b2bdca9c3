package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger is the adapter over the external wallet. The engine never mutates
// balances directly: stakes are debited on placement, winnings and refunds
// credited on settlement. Every call carries an idempotency key so a retry
// after a transient failure never double-applies.
type Ledger interface {
	Debit(ctx context.Context, playerID string, amount float64, idemKey string) (float64, error)
	Credit(ctx context.Context, playerID string, amount float64, idemKey string) (float64, error)
	Balance(ctx context.Context, playerID string) (float64, error)
}

// Idempotency key kinds. Keys are (roundID, betID, eventKind).
const (
	LedgerKindStake  = "stake"
	LedgerKindRefund = "refund"
	LedgerKindPayout = "payout"
)

// IdemKey builds the idempotency key for one ledger event.
func IdemKey(roundID int64, betID, kind string) string {
	return fmt.Sprintf("%d:%s:%s", roundID, betID, kind)
}

const (
	redisKeyBalance = "crash:balance:"
	redisKeyIdem    = "crash:idem:"
	idemTTL         = 24 * time.Hour
)

// RedisLedger keeps balances in Redis, guarded by SETNX idempotency
// markers. Balance math uses IncrByFloat as the atomic primitive.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Debit(ctx context.Context, playerID string, amount float64, idemKey string) (float64, error) {
	fresh, err := l.client.SetNX(ctx, redisKeyIdem+idemKey, 1, idemTTL).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if !fresh {
		// Replay of an applied debit: no additional effect.
		return l.Balance(ctx, playerID)
	}

	balanceKey := redisKeyBalance + playerID
	newBalance, err := l.client.IncrByFloat(ctx, balanceKey, -amount).Result()
	if err != nil {
		l.client.Del(ctx, redisKeyIdem+idemKey)
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if newBalance < 0 {
		// Roll back and release the marker so a funded retry can succeed.
		l.client.IncrByFloat(ctx, balanceKey, amount)
		l.client.Del(ctx, redisKeyIdem+idemKey)
		return newBalance + amount, ErrInsufficientFunds
	}
	return newBalance, nil
}

func (l *RedisLedger) Credit(ctx context.Context, playerID string, amount float64, idemKey string) (float64, error) {
	fresh, err := l.client.SetNX(ctx, redisKeyIdem+idemKey, 1, idemTTL).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if !fresh {
		return l.Balance(ctx, playerID)
	}

	newBalance, err := l.client.IncrByFloat(ctx, redisKeyBalance+playerID, amount).Result()
	if err != nil {
		l.client.Del(ctx, redisKeyIdem+idemKey)
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return newBalance, nil
}

func (l *RedisLedger) Balance(ctx context.Context, playerID string) (float64, error) {
	balance, err := l.client.Get(ctx, redisKeyBalance+playerID).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return balance, nil
}

// SetBalance overwrites a player balance. Admin/test surface only.
func (l *RedisLedger) SetBalance(ctx context.Context, playerID string, amount float64) error {
	return l.client.Set(ctx, redisKeyBalance+playerID, amount, 0).Err()
}

// MemoryLedger is an in-process Ledger for tests and local runs.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]float64
	applied  map[string]bool

	// FailCredits makes the next N credit calls fail, for retry tests.
	FailCredits int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]float64),
		applied:  make(map[string]bool),
	}
}

func (l *MemoryLedger) Debit(_ context.Context, playerID string, amount float64, idemKey string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied[idemKey] {
		return l.balances[playerID], nil
	}
	if l.balances[playerID] < amount {
		return l.balances[playerID], ErrInsufficientFunds
	}
	l.applied[idemKey] = true
	l.balances[playerID] -= amount
	return l.balances[playerID], nil
}

func (l *MemoryLedger) Credit(_ context.Context, playerID string, amount float64, idemKey string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.FailCredits > 0 {
		l.FailCredits--
		return 0, ErrLedgerUnavailable
	}
	if l.applied[idemKey] {
		return l.balances[playerID], nil
	}
	l.applied[idemKey] = true
	l.balances[playerID] += amount
	return l.balances[playerID], nil
}

func (l *MemoryLedger) Balance(_ context.Context, playerID string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[playerID], nil
}

func (l *MemoryLedger) SetBalance(playerID string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[playerID] = amount
}

// Applied reports whether an idempotency key has been consumed.
func (l *MemoryLedger) Applied(idemKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applied[idemKey]
}

// creditWithRetry retries a settlement credit with the same idempotency
// key. A failed payout must never be treated as the player's loss, so
// after exhausting retries it logs for operator escalation.
func creditWithRetry(ctx context.Context, ledger Ledger, playerID string, amount float64, idemKey string) {
	const attempts = 3
	var err error
	for i := 0; i < attempts; i++ {
		if _, err = ledger.Credit(ctx, playerID, amount, idemKey); err == nil {
			return
		}
		time.Sleep(time.Duration(i+1) * 50 * time.Millisecond)
	}
	log.Printf("[LEDGER] ALERT credit failed after %d attempts key=%s player=%s amount=%.2f: %v",
		attempts, idemKey, playerID, amount, err)
}
