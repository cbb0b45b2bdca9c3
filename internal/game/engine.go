package game

import (
	"context"
	"log"
	"sync"
	"time"
)

// Config holds the engine's tunables. Timings shrink to milliseconds in
// tests; production values come from internal/config.
type Config struct {
	MinStake        float64
	MaxStake        float64
	BettingDuration time.Duration
	TickInterval    time.Duration
	InterRoundDelay time.Duration
	HistorySize     int
	CommandTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinStake:        1.0,
		MaxStake:        10000.0,
		BettingDuration: 5 * time.Second,
		TickInterval:    100 * time.Millisecond,
		InterRoundDelay: 3 * time.Second,
		HistorySize:     50,
		CommandTimeout:  5 * time.Second,
	}
}

// Engine is the authoritative round scheduler. One goroutine owns all
// round state and applies every command and tick in order; callers talk
// to it through request channels and block on per-request response
// channels. That single serialization point is what makes "auto-cashout
// beats crash on tie" and "cashout settles at the engine's multiplier"
// well-defined.
type Engine struct {
	cfg     Config
	ledger  Ledger
	history *History
	stats   *StatsTracker

	betChan     chan BetRequest
	cancelChan  chan CancelRequest
	cashoutChan chan CashoutRequest
	stopChan    chan struct{}
	doneChan    chan struct{}
	stopOnce    sync.Once

	snapMu        sync.RWMutex
	snapshot      RoundSnapshot
	hasRound      bool
	bettingEndsAt time.Time

	subMu       sync.Mutex
	subscribers []chan Event

	// drawCrash is swapped in tests to pin the crash point.
	drawCrash func(nonce int64) CrashDraw

	roundSeq int64
	ctx      context.Context
}

func NewEngine(cfg Config, ledger Ledger) *Engine {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
	return &Engine{
		cfg:         cfg,
		ledger:      ledger,
		history:     NewHistory(cfg.HistorySize),
		stats:       NewStatsTracker(),
		betChan:     make(chan BetRequest, 1000),
		cancelChan:  make(chan CancelRequest, 1000),
		cashoutChan: make(chan CashoutRequest, 1000),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		drawCrash:   DrawCrashPoint,
		ctx:         context.Background(),
	}
}

// Start launches the scheduler loop. Rounds run back to back until Stop.
func (e *Engine) Start() {
	go e.run()
}

// Stop halts the loop after the current select step. Open bets are
// refunded so no stake is stranded on shutdown.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	<-e.doneChan
}

// PlaceBet submits a bet for the current round and blocks until the loop
// answers. Valid only during the betting window.
func (e *Engine) PlaceBet(playerID string, stake, autoCashout float64) BetResponse {
	req := BetRequest{
		PlayerID:     playerID,
		Stake:        stake,
		AutoCashout:  autoCashout,
		ResponseChan: make(chan BetResponse, 1),
	}
	select {
	case e.betChan <- req:
	case <-e.stopChan:
		return BetResponse{Reason: ErrEngineStopped.Error()}
	default:
		return BetResponse{Reason: ErrQueueFull.Error()}
	}
	select {
	case resp := <-req.ResponseChan:
		return resp
	case <-time.After(e.cfg.CommandTimeout):
		return BetResponse{Reason: ErrTimeout.Error()}
	}
}

// CancelBet withdraws a Pending bet and refunds its stake. Valid only
// before the round starts flying.
func (e *Engine) CancelBet(playerID, betID string) CancelResponse {
	req := CancelRequest{
		PlayerID:     playerID,
		BetID:        betID,
		ResponseChan: make(chan CancelResponse, 1),
	}
	select {
	case e.cancelChan <- req:
	case <-e.stopChan:
		return CancelResponse{Reason: ErrEngineStopped.Error()}
	default:
		return CancelResponse{Reason: ErrQueueFull.Error()}
	}
	select {
	case resp := <-req.ResponseChan:
		return resp
	case <-time.After(e.cfg.CommandTimeout):
		return CancelResponse{Reason: ErrTimeout.Error()}
	}
}

// Cashout settles an Active bet at the multiplier the loop observes when
// it processes the request, not the multiplier the caller saw.
func (e *Engine) Cashout(playerID, betID string) CashoutResponse {
	req := CashoutRequest{
		PlayerID:     playerID,
		BetID:        betID,
		ResponseChan: make(chan CashoutResponse, 1),
	}
	select {
	case e.cashoutChan <- req:
	case <-e.stopChan:
		return CashoutResponse{Reason: ErrEngineStopped.Error()}
	default:
		return CashoutResponse{Reason: ErrQueueFull.Error()}
	}
	select {
	case resp := <-req.ResponseChan:
		return resp
	case <-time.After(e.cfg.CommandTimeout):
		return CashoutResponse{Reason: ErrTimeout.Error()}
	}
}

// CurrentRound returns the client-visible state of the active round, or
// false before the first round opens.
func (e *Engine) CurrentRound() (RoundSnapshot, bool) {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()

	if !e.hasRound {
		return RoundSnapshot{}, false
	}
	snap := e.snapshot
	if snap.Phase == PhaseWaitingForBets {
		left := time.Until(e.bettingEndsAt).Seconds()
		if left < 0 {
			left = 0
		}
		snap.SecondsLeft = left
	}
	return snap, true
}

// RecentHistory returns up to n completed rounds, most recent first.
func (e *Engine) RecentHistory(n int) []HistoryEntry {
	return e.history.Recent(n)
}

// PlayerStatistics returns the aggregate for one player.
func (e *Engine) PlayerStatistics(playerID string) PlayerStats {
	return e.stats.Player(playerID)
}

// Subscribe registers an event channel. Delivery is best-effort: a
// subscriber that falls behind loses events rather than stalling the
// scheduler.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.subMu.Unlock()
	return ch
}

func (e *Engine) publish(ev Event) {
	ev.At = time.Now()
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- ev:
		default:
			log.Printf("[ENGINE] subscriber full, dropping %s event", ev.Type)
		}
	}
}

func (e *Engine) setSnapshot(round *Round, bettingEndsAt time.Time) {
	e.snapMu.Lock()
	defer e.snapMu.Unlock()

	e.hasRound = true
	e.bettingEndsAt = bettingEndsAt
	e.snapshot = RoundSnapshot{
		RoundID:           round.ID,
		Phase:             round.Phase,
		Commitment:        round.Commitment,
		ClientSeed:        round.ClientSeed,
		Nonce:             round.Nonce,
		CurrentMultiplier: round.CurrentMult,
	}
	if round.Phase == PhaseFlying {
		e.snapshot.ElapsedSeconds = time.Since(round.StartedFlyingAt).Seconds()
	}
}

// credit applies a settlement credit, falling back to async retries with
// the same idempotency key. A failed payout is escalated, never dropped.
func (e *Engine) credit(playerID string, amount float64, idemKey string) {
	if _, err := e.ledger.Credit(e.ctx, playerID, amount, idemKey); err != nil {
		log.Printf("[LEDGER] credit failed key=%s, retrying async: %v", idemKey, err)
		go creditWithRetry(e.ctx, e.ledger, playerID, amount, idemKey)
	}
}
