package game

import "testing"

func TestStatsTracker_CashedOut(t *testing.T) {
	s := NewStatsTracker()

	s.RecordSettlement(&Bet{
		ID: "b1", PlayerID: "alice", Stake: 50,
		Status: BetCashedOut, CashoutMultiplier: 2.0, Payout: 100,
	})

	stats := s.Player("alice")
	if stats.GamesPlayed != 1 {
		t.Errorf("GamesPlayed = %d, want 1", stats.GamesPlayed)
	}
	if stats.TotalWagered != 50 {
		t.Errorf("TotalWagered = %v, want 50", stats.TotalWagered)
	}
	if stats.TotalWon != 100 {
		t.Errorf("TotalWon = %v, want 100", stats.TotalWon)
	}
	if stats.BiggestMultiplier != 2.0 {
		t.Errorf("BiggestMultiplier = %v, want 2.0", stats.BiggestMultiplier)
	}
	if stats.CurrentWinStreak != 1 {
		t.Errorf("CurrentWinStreak = %d, want 1", stats.CurrentWinStreak)
	}
}

func TestStatsTracker_LossResetsStreak(t *testing.T) {
	s := NewStatsTracker()

	s.RecordSettlement(&Bet{ID: "b1", PlayerID: "bob", Stake: 10, Status: BetCashedOut, CashoutMultiplier: 1.5, Payout: 15})
	s.RecordSettlement(&Bet{ID: "b2", PlayerID: "bob", Stake: 10, Status: BetCashedOut, CashoutMultiplier: 1.2, Payout: 12})
	s.RecordSettlement(&Bet{ID: "b3", PlayerID: "bob", Stake: 100, Status: BetLost})

	stats := s.Player("bob")
	if stats.GamesPlayed != 3 {
		t.Errorf("GamesPlayed = %d, want 3", stats.GamesPlayed)
	}
	if stats.TotalWagered != 120 {
		t.Errorf("TotalWagered = %v, want 120", stats.TotalWagered)
	}
	if stats.CurrentWinStreak != 0 {
		t.Errorf("CurrentWinStreak = %d, want 0 after loss", stats.CurrentWinStreak)
	}
	if stats.BiggestMultiplier != 1.5 {
		t.Errorf("BiggestMultiplier = %v, want 1.5", stats.BiggestMultiplier)
	}
}

func TestStatsTracker_IgnoresNonTerminal(t *testing.T) {
	s := NewStatsTracker()

	s.RecordSettlement(&Bet{ID: "b1", PlayerID: "carol", Stake: 10, Status: BetPending})
	s.RecordSettlement(&Bet{ID: "b2", PlayerID: "carol", Stake: 10, Status: BetActive})
	s.RecordSettlement(&Bet{ID: "b3", PlayerID: "carol", Stake: 10, Status: BetCancelled})

	if stats := s.Player("carol"); stats.GamesPlayed != 0 {
		t.Errorf("GamesPlayed = %d, want 0 for non-terminal statuses", stats.GamesPlayed)
	}
}

func TestStatsTracker_UnknownPlayerIsZero(t *testing.T) {
	s := NewStatsTracker()
	stats := s.Player("nobody")
	if stats.PlayerID != "nobody" || stats.GamesPlayed != 0 {
		t.Errorf("unexpected zero-value stats: %+v", stats)
	}
}
