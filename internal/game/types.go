package game

import (
	"time"
)

// Phase is the lifecycle state of a round. Transitions are strictly
// WaitingForBets -> Flying -> Crashed.
type Phase string

const (
	PhaseWaitingForBets Phase = "WAITING_FOR_BETS"
	PhaseFlying         Phase = "FLYING"
	PhaseCrashed        Phase = "CRASHED"
)

// BetStatus tracks a bet through its life. CashedOut, Lost and Cancelled
// are terminal and immutable once set.
type BetStatus string

const (
	BetPending   BetStatus = "PENDING"
	BetActive    BetStatus = "ACTIVE"
	BetCashedOut BetStatus = "CASHED_OUT"
	BetLost      BetStatus = "LOST"
	BetCancelled BetStatus = "CANCELLED"
)

// Bet is a single player stake in one round.
type Bet struct {
	ID                string    `json:"bet_id"`
	PlayerID          string    `json:"player_id"`
	Stake             float64   `json:"stake"`
	AutoCashout       float64   `json:"auto_cashout,omitempty"` // 0 = none
	Status            BetStatus `json:"status"`
	CashoutMultiplier float64   `json:"cashout_multiplier,omitempty"`
	Payout            float64   `json:"payout,omitempty"`
	PlacedAt          time.Time `json:"placed_at"`
}

// Round owns one play cycle. CrashPoint and ServerSeed are hidden from
// clients until the round crashes.
type Round struct {
	ID              int64           `json:"round_id"`
	Phase           Phase           `json:"phase"`
	CrashPoint      float64         `json:"-"`
	ServerSeed      string          `json:"-"`
	ClientSeed      string          `json:"client_seed"`
	Commitment      string          `json:"commitment"`
	Nonce           int64           `json:"nonce"`
	CurrentMult     float64         `json:"current_multiplier"`
	StartedAt       time.Time       `json:"started_at"`
	StartedFlyingAt time.Time       `json:"started_flying_at,omitempty"`
	CrashedAt       time.Time       `json:"crashed_at,omitempty"`
	Bets            map[string]*Bet `json:"-"`

	betSeq int64 // bet id sequence, unique within the round
}

// RoundSnapshot is the client-visible view of the current round.
type RoundSnapshot struct {
	RoundID           int64   `json:"round_id"`
	Phase             Phase   `json:"phase"`
	Commitment        string  `json:"commitment"`
	ClientSeed        string  `json:"client_seed"`
	Nonce             int64   `json:"nonce"`
	CurrentMultiplier float64 `json:"current_multiplier"`
	SecondsLeft       float64 `json:"seconds_left,omitempty"` // betting countdown
	ElapsedSeconds    float64 `json:"elapsed_seconds,omitempty"`
}

// BetRequest asks the engine to place a bet in the current round.
type BetRequest struct {
	PlayerID     string           `json:"player_id"`
	Stake        float64          `json:"stake"`
	AutoCashout  float64          `json:"auto_cashout,omitempty"`
	ResponseChan chan BetResponse `json:"-"`
}

type BetResponse struct {
	Success bool    `json:"success"`
	Reason  string  `json:"reason,omitempty"`
	BetID   string  `json:"bet_id,omitempty"`
	RoundID int64   `json:"round_id,omitempty"`
	Balance float64 `json:"balance,omitempty"`
}

// CancelRequest removes a Pending bet before the round starts flying.
type CancelRequest struct {
	PlayerID     string              `json:"player_id"`
	BetID        string              `json:"bet_id"`
	ResponseChan chan CancelResponse `json:"-"`
}

type CancelResponse struct {
	Success  bool    `json:"success"`
	Reason   string  `json:"reason,omitempty"`
	Refunded float64 `json:"refunded,omitempty"`
}

// CashoutRequest locks in the current multiplier for an Active bet.
type CashoutRequest struct {
	PlayerID     string               `json:"player_id"`
	BetID        string               `json:"bet_id"`
	ResponseChan chan CashoutResponse `json:"-"`
}

type CashoutResponse struct {
	Success    bool    `json:"success"`
	Reason     string  `json:"reason,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Payout     float64 `json:"payout,omitempty"`
}

// EventType enumerates engine lifecycle events emitted to subscribers
// (websocket hub, audit sink, autobet manager).
type EventType string

const (
	EventRoundStarted EventType = "round_started"
	EventRoundFlying  EventType = "round_flying"
	EventTick         EventType = "tick"
	EventBetPlaced    EventType = "bet_placed"
	EventBetSettled   EventType = "bet_settled"
	EventRoundCrashed EventType = "round_crashed"
)

// Event carries enough data for external audit: round id, bet id,
// multiplier and payout where applicable.
type Event struct {
	Type       EventType `json:"type"`
	RoundID    int64     `json:"round_id"`
	Commitment string    `json:"commitment,omitempty"`
	ClientSeed string    `json:"client_seed,omitempty"`
	ServerSeed string    `json:"server_seed,omitempty"` // revealed on crash only
	Nonce      int64     `json:"nonce,omitempty"`
	CrashPoint float64   `json:"crash_point,omitempty"`
	Multiplier float64   `json:"multiplier,omitempty"`
	Bet        *Bet      `json:"bet,omitempty"`
	At         time.Time `json:"at"`
}

// HistoryEntry is one completed round kept for display and statistics.
type HistoryEntry struct {
	RoundID    int64   `json:"round_id"`
	CrashPoint float64 `json:"crash_point"`
}

// PlayerStats is the external-facing per-player aggregate, updated exactly
// once per bet terminal transition.
type PlayerStats struct {
	PlayerID          string  `json:"player_id"`
	GamesPlayed       int64   `json:"games_played"`
	TotalWagered      float64 `json:"total_wagered"`
	TotalWon          float64 `json:"total_won"`
	BiggestMultiplier float64 `json:"biggest_multiplier"`
	CurrentWinStreak  int64   `json:"current_win_streak"`
}
