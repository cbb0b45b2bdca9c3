package game

import (
	"fmt"
	"log"
	"sync"
)

// AutoBetConfig is the player-supplied plan for an automated bet sequence.
type AutoBetConfig struct {
	PlayerID     string  `json:"player_id"`
	NumberOfBets int     `json:"number_of_bets"`
	BaseStake    float64 `json:"base_stake"`
	AutoCashout  float64 `json:"auto_cashout,omitempty"`

	StopOnWin  bool    `json:"stop_on_win,omitempty"`
	WinAmount  float64 `json:"win_amount,omitempty"`
	StopOnLoss bool    `json:"stop_on_loss,omitempty"`
	LossAmount float64 `json:"loss_amount,omitempty"`

	IncreaseOnWin       bool    `json:"increase_on_win,omitempty"`
	WinIncreasePercent  float64 `json:"win_increase_percent,omitempty"`
	IncreaseOnLoss      bool    `json:"increase_on_loss,omitempty"`
	LossIncreasePercent float64 `json:"loss_increase_percent,omitempty"`
}

func (c AutoBetConfig) validate() error {
	if c.PlayerID == "" {
		return ErrMissingPlayer
	}
	if c.NumberOfBets <= 0 || c.BaseStake <= 0 {
		return ErrSessionConfig
	}
	if c.AutoCashout != 0 && c.AutoCashout <= 1.0 {
		return ErrBadAutoCashout
	}
	if c.StopOnWin && c.WinAmount <= 0 {
		return ErrSessionConfig
	}
	if c.StopOnLoss && c.LossAmount <= 0 {
		return ErrSessionConfig
	}
	return nil
}

// AutoBetSession tracks one running sequence. A terminated session is
// never revived; the player starts a new one with fresh config.
type AutoBetSession struct {
	ID            string        `json:"session_id"`
	Config        AutoBetConfig `json:"config"`
	RemainingBets int           `json:"remaining_bets"`
	CurrentStake  float64       `json:"current_stake"`
	Wins          int64         `json:"wins"`
	Losses        int64         `json:"losses"`
	NetProfit     float64       `json:"net_profit"`
	Running       bool          `json:"running"`

	totalWon  float64 // cumulative win amount (payout - stake) for stop-on-win
	totalLost float64 // cumulative lost stakes for stop-on-loss
	lastRound int64   // last round this session placed into
}

// AutoBetManager places one bet per round for every running session,
// re-armed by the engine's round-started event. Session state is only
// touched from the manager's own goroutine plus the Start/Stop entry
// points, all under one mutex.
type AutoBetManager struct {
	engine *Engine
	events <-chan Event

	mu       sync.Mutex
	sessions map[string]*AutoBetSession
	byPlayer map[string]*AutoBetSession // running session per player
	byBet    map[string]*AutoBetSession // placed bet -> owning session
	seq      int64

	stopChan chan struct{}
	stopOnce sync.Once
	doneChan chan struct{}
}

func NewAutoBetManager(engine *Engine) *AutoBetManager {
	return &AutoBetManager{
		engine:   engine,
		events:   engine.Subscribe(512),
		sessions: make(map[string]*AutoBetSession),
		byPlayer: make(map[string]*AutoBetSession),
		byBet:    make(map[string]*AutoBetSession),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (m *AutoBetManager) Start() {
	go m.run()
}

func (m *AutoBetManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	<-m.doneChan
}

func (m *AutoBetManager) run() {
	defer close(m.doneChan)
	for {
		select {
		case <-m.stopChan:
			return
		case ev := <-m.events:
			switch ev.Type {
			case EventRoundStarted:
				m.placeBets()
			case EventBetSettled:
				m.onSettled(ev.Bet)
			}
		}
	}
}

// StartSession begins a new automated sequence. One running session per
// player; if the current round is still taking bets the first bet goes in
// immediately, otherwise it waits for the next betting window.
func (m *AutoBetManager) StartSession(cfg AutoBetConfig) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	if _, exists := m.byPlayer[cfg.PlayerID]; exists {
		m.mu.Unlock()
		return "", ErrSessionDuplicate
	}
	m.seq++
	session := &AutoBetSession{
		ID:            fmt.Sprintf("AB-%s-%d", cfg.PlayerID, m.seq),
		Config:        cfg,
		RemainingBets: cfg.NumberOfBets,
		CurrentStake:  cfg.BaseStake,
		Running:       true,
	}
	m.sessions[session.ID] = session
	m.byPlayer[cfg.PlayerID] = session
	m.mu.Unlock()

	log.Printf("[AUTOBET] session %s started: %d bets of %.2f", session.ID, cfg.NumberOfBets, cfg.BaseStake)

	if snap, ok := m.engine.CurrentRound(); ok && snap.Phase == PhaseWaitingForBets {
		m.placeFor(session)
	}
	return session.ID, nil
}

// StopSession halts a session before its next placement decision. A bet
// already riding in a flying round is left to resolve on its own.
func (m *AutoBetManager) StopSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Running {
		m.terminate(session, "stopped by player")
	}
	return nil
}

// Session returns a copy of the session state.
func (m *AutoBetManager) Session(sessionID string) (AutoBetSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return AutoBetSession{}, ErrSessionNotFound
	}
	return *session, nil
}

// placeBets consumes one bet-placement opportunity per running session at
// each new betting window.
func (m *AutoBetManager) placeBets() {
	m.mu.Lock()
	pending := make([]*AutoBetSession, 0, len(m.byPlayer))
	for _, session := range m.byPlayer {
		pending = append(pending, session)
	}
	m.mu.Unlock()

	for _, session := range pending {
		m.placeFor(session)
	}
}

func (m *AutoBetManager) placeFor(session *AutoBetSession) {
	snap, ok := m.engine.CurrentRound()
	if !ok || snap.Phase != PhaseWaitingForBets {
		return
	}

	m.mu.Lock()
	if !session.Running || session.RemainingBets <= 0 || session.lastRound == snap.RoundID {
		m.mu.Unlock()
		return
	}
	// Reserve the round before releasing the lock. StartSession's
	// immediate placement and the round-started pass can both reach here
	// for the same round; whichever commits first wins and the other
	// bails at the lastRound check above.
	session.lastRound = snap.RoundID
	playerID := session.Config.PlayerID
	stake := session.CurrentStake
	autoCashout := session.Config.AutoCashout
	m.mu.Unlock()

	// Engine call happens outside the lock; it blocks until the loop
	// answers.
	resp := m.engine.PlaceBet(playerID, stake, autoCashout)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !resp.Success {
		if transientRejection(resp.Reason) {
			// The round got away from us (window closed, queue full or
			// command timed out). Skip it and keep the sequence alive.
			log.Printf("[AUTOBET] session %s skipped round %d: %s", session.ID, snap.RoundID, resp.Reason)
			return
		}
		log.Printf("[AUTOBET] session %s bet rejected: %s", session.ID, resp.Reason)
		m.terminate(session, resp.Reason)
		return
	}
	session.RemainingBets--
	m.byBet[resp.BetID] = session
}

// transientRejection reports whether a placement rejection is a timing
// artifact of this round rather than a problem with the session itself.
// Sessions only end on their stop rules, exhausted bets, explicit Stop,
// or a rejection that would repeat every round.
func transientRejection(reason string) bool {
	switch reason {
	case ErrInvalidPhase.Error(), ErrQueueFull.Error(), ErrTimeout.Error():
		return true
	}
	return false
}

// onSettled folds a settlement into its owning session and applies stop
// and scaling rules.
func (m *AutoBetManager) onSettled(bet *Bet) {
	if bet == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.byBet[bet.ID]
	if !ok {
		return
	}
	delete(m.byBet, bet.ID)

	cfg := session.Config
	switch bet.Status {
	case BetCashedOut:
		won := bet.Payout - bet.Stake
		session.Wins++
		session.totalWon += won
		session.NetProfit += won
		if cfg.IncreaseOnWin {
			session.CurrentStake *= 1 + cfg.WinIncreasePercent/100
		}
	case BetLost:
		session.Losses++
		session.totalLost += bet.Stake
		session.NetProfit -= bet.Stake
		if cfg.IncreaseOnLoss {
			session.CurrentStake *= 1 + cfg.LossIncreasePercent/100
		}
	default:
		return
	}

	if cfg.StopOnWin && session.totalWon >= cfg.WinAmount {
		m.terminate(session, "stop-on-win reached")
		return
	}
	if cfg.StopOnLoss && session.totalLost >= cfg.LossAmount {
		m.terminate(session, "stop-on-loss reached")
		return
	}
	if session.RemainingBets <= 0 {
		m.terminate(session, "sequence complete")
	}
}

// terminate ends a session. Caller holds m.mu.
func (m *AutoBetManager) terminate(session *AutoBetSession, reason string) {
	session.Running = false
	delete(m.byPlayer, session.Config.PlayerID)
	log.Printf("[AUTOBET] session %s ended: %s (wins=%d losses=%d net=%.2f)",
		session.ID, reason, session.Wins, session.Losses, session.NetProfit)
}
