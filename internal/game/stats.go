package game

import "sync"

// StatsTracker aggregates per-player statistics. The engine calls
// RecordSettlement from its loop goroutine exactly once per bet terminal
// transition, so each settlement is applied transactionally.
type StatsTracker struct {
	mu      sync.RWMutex
	players map[string]*PlayerStats
}

func NewStatsTracker() *StatsTracker {
	return &StatsTracker{players: make(map[string]*PlayerStats)}
}

// RecordSettlement applies one CashedOut or Lost settlement. Cancelled
// bets never reach here; a cancelled stake was never played.
func (s *StatsTracker) RecordSettlement(bet *Bet) {
	if bet.Status != BetCashedOut && bet.Status != BetLost {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.players[bet.PlayerID]
	if !ok {
		stats = &PlayerStats{PlayerID: bet.PlayerID}
		s.players[bet.PlayerID] = stats
	}

	stats.GamesPlayed++
	stats.TotalWagered += bet.Stake

	if bet.Status == BetCashedOut {
		stats.TotalWon += bet.Payout
		if bet.CashoutMultiplier > stats.BiggestMultiplier {
			stats.BiggestMultiplier = bet.CashoutMultiplier
		}
		stats.CurrentWinStreak++
	} else {
		stats.CurrentWinStreak = 0
	}
}

// Player returns a copy of the player's aggregate, zero-valued if the
// player has never settled a bet.
func (s *StatsTracker) Player(playerID string) PlayerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stats, ok := s.players[playerID]; ok {
		return *stats
	}
	return PlayerStats{PlayerID: playerID}
}
