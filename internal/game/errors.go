package game

import "errors"

// Reason codes surfaced to callers. Commands are rejected synchronously
// with no side effect; the engine itself never enters an error state.
var (
	ErrStakeOutOfBounds  = errors.New("stake out of bounds")
	ErrMissingPlayer     = errors.New("player id is required")
	ErrBadAutoCashout    = errors.New("auto cashout must be greater than 1.0")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPhase      = errors.New("command not valid in current phase")
	ErrBetNotFound       = errors.New("bet not found")
	ErrBetNotPending     = errors.New("bet is no longer pending")
	ErrBetNotActive      = errors.New("bet is not active")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrEngineStopped     = errors.New("engine stopped")
	ErrQueueFull         = errors.New("command queue full")
	ErrTimeout           = errors.New("command timed out")

	ErrSessionNotFound  = errors.New("autobet session not found")
	ErrSessionConfig    = errors.New("invalid autobet configuration")
	ErrSessionDuplicate = errors.New("player already has a running autobet session")
)
