package game

import (
	"fmt"
	"log"
	"time"
)

// run drives rounds strictly sequentially: round N+1 cannot open for bets
// until round N's settlement pass has fully completed.
func (e *Engine) run() {
	defer close(e.doneChan)
	for {
		select {
		case <-e.stopChan:
			log.Println("[ENGINE] scheduler stopped")
			return
		default:
		}
		if !e.runRound() {
			return
		}
	}
}

// runRound owns one full round lifecycle. Returns false when the engine
// was stopped mid-round.
func (e *Engine) runRound() bool {
	e.roundSeq++
	draw := e.drawCrash(e.roundSeq)

	round := &Round{
		ID:          e.roundSeq,
		Phase:       PhaseWaitingForBets,
		CrashPoint:  draw.CrashPoint,
		ServerSeed:  draw.ServerSeed,
		ClientSeed:  draw.ClientSeed,
		Commitment:  draw.Commitment,
		Nonce:       draw.Nonce,
		CurrentMult: 1.0,
		StartedAt:   time.Now(),
		Bets:        make(map[string]*Bet),
	}
	bettingEndsAt := round.StartedAt.Add(e.cfg.BettingDuration)
	e.setSnapshot(round, bettingEndsAt)

	log.Printf("[ENGINE] round %d open for bets, commitment %s...", round.ID, round.Commitment[:16])
	e.publish(Event{
		Type:       EventRoundStarted,
		RoundID:    round.ID,
		Commitment: round.Commitment,
		ClientSeed: round.ClientSeed,
		Nonce:      round.Nonce,
	})

	if !e.bettingPhase(round) {
		e.refundOpenBets(round)
		return false
	}

	e.startFlying(round)

	if !e.flyingPhase(round) {
		e.refundOpenBets(round)
		return false
	}

	e.history.Append(HistoryEntry{RoundID: round.ID, CrashPoint: round.CrashPoint})
	log.Printf("[ENGINE] round %d crashed at %.2fx", round.ID, round.CrashPoint)

	return e.interRoundPause(round)
}

// bettingPhase serves PlaceBet/CancelBet until the countdown expires.
// Cashouts arriving here are rejected without mutation.
func (e *Engine) bettingPhase(round *Round) bool {
	timer := time.NewTimer(e.cfg.BettingDuration)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return true
		case req := <-e.betChan:
			e.handlePlaceBet(round, req)
		case req := <-e.cancelChan:
			e.handleCancel(round, req)
		case req := <-e.cashoutChan:
			req.ResponseChan <- CashoutResponse{Reason: ErrInvalidPhase.Error()}
		case <-e.stopChan:
			return false
		}
	}
}

// startFlying freezes the bet set: every Pending bet becomes Active and
// the multiplier clock starts.
func (e *Engine) startFlying(round *Round) {
	round.Phase = PhaseFlying
	round.StartedFlyingAt = time.Now()
	for _, bet := range round.Bets {
		if bet.Status == BetPending {
			bet.Status = BetActive
		}
	}
	e.setSnapshot(round, time.Time{})
	e.publish(Event{Type: EventRoundFlying, RoundID: round.ID})
}

// flyingPhase ticks the multiplier and serves cashouts until the crash.
func (e *Engine) flyingPhase(round *Round) bool {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if e.handleTick(round) {
				return true
			}
		case req := <-e.cashoutChan:
			e.handleCashout(round, req)
		case req := <-e.betChan:
			req.ResponseChan <- BetResponse{Reason: ErrInvalidPhase.Error()}
		case req := <-e.cancelChan:
			req.ResponseChan <- CancelResponse{Reason: ErrInvalidPhase.Error()}
		case <-e.stopChan:
			return false
		}
	}
}

// handleTick advances the multiplier and settles in the mandated order:
// auto-cashouts first, crash check second, so an auto-cashout threshold
// at or below the crash point always wins the tie. Returns true once the
// round has crashed and every remaining Active bet is settled Lost.
func (e *Engine) handleTick(round *Round) bool {
	elapsed := time.Since(round.StartedFlyingAt).Seconds()
	raw := MultiplierAt(elapsed)

	// The multiplier never displays past the crash point, and ticks may
	// jump past several thresholds at once.
	effective := raw
	if effective > round.CrashPoint {
		effective = round.CrashPoint
	}
	round.CurrentMult = effective
	e.setSnapshot(round, time.Time{})

	for _, bet := range round.Bets {
		if bet.Status == BetActive && bet.AutoCashout > 0 && bet.AutoCashout <= effective {
			e.settleCashout(round, bet, bet.AutoCashout)
		}
	}

	if raw >= round.CrashPoint {
		e.crash(round)
		return true
	}

	e.publish(Event{Type: EventTick, RoundID: round.ID, Multiplier: effective})
	return false
}

// crash ends the round. Settlement is total: every bet still Active is
// unconditionally Lost.
func (e *Engine) crash(round *Round) {
	round.Phase = PhaseCrashed
	round.CrashedAt = time.Now()
	round.CurrentMult = round.CrashPoint
	e.setSnapshot(round, time.Time{})

	for _, bet := range round.Bets {
		if bet.Status == BetActive {
			e.settleLoss(round, bet)
		}
	}

	e.publish(Event{
		Type:       EventRoundCrashed,
		RoundID:    round.ID,
		CrashPoint: round.CrashPoint,
		ServerSeed: round.ServerSeed,
		ClientSeed: round.ClientSeed,
		Nonce:      round.Nonce,
	})
}

// interRoundPause holds between crash and the next betting window,
// rejecting commands instead of queueing them into the next round.
func (e *Engine) interRoundPause(round *Round) bool {
	timer := time.NewTimer(e.cfg.InterRoundDelay)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return true
		case req := <-e.betChan:
			req.ResponseChan <- BetResponse{Reason: ErrInvalidPhase.Error()}
		case req := <-e.cancelChan:
			req.ResponseChan <- CancelResponse{Reason: ErrInvalidPhase.Error()}
		case req := <-e.cashoutChan:
			req.ResponseChan <- CashoutResponse{Reason: ErrInvalidPhase.Error()}
		case <-e.stopChan:
			return false
		}
	}
}

func (e *Engine) handlePlaceBet(round *Round, req BetRequest) {
	resp := BetResponse{}
	defer func() {
		if req.ResponseChan != nil {
			req.ResponseChan <- resp
		}
	}()

	if req.PlayerID == "" {
		resp.Reason = ErrMissingPlayer.Error()
		return
	}
	if req.Stake < e.cfg.MinStake || req.Stake > e.cfg.MaxStake {
		resp.Reason = fmt.Sprintf("%s: stake must be between %.2f and %.2f",
			ErrStakeOutOfBounds.Error(), e.cfg.MinStake, e.cfg.MaxStake)
		return
	}
	if req.AutoCashout != 0 && req.AutoCashout <= 1.0 {
		resp.Reason = ErrBadAutoCashout.Error()
		return
	}

	round.betSeq++
	betID := fmt.Sprintf("BET-%d-%s-%d", round.ID, req.PlayerID, round.betSeq)
	balance, err := e.ledger.Debit(e.ctx, req.PlayerID, req.Stake, IdemKey(round.ID, betID, LedgerKindStake))
	if err != nil {
		// The round must not proceed as if the debit succeeded: no Bet is
		// created on any debit failure.
		resp.Reason = err.Error()
		resp.Balance = balance
		return
	}

	bet := &Bet{
		ID:          betID,
		PlayerID:    req.PlayerID,
		Stake:       req.Stake,
		AutoCashout: req.AutoCashout,
		Status:      BetPending,
		PlacedAt:    time.Now(),
	}
	round.Bets[betID] = bet

	resp.Success = true
	resp.BetID = betID
	resp.RoundID = round.ID
	resp.Balance = balance

	log.Printf("[BET] player %s staked %.2f on round %d (%s)", req.PlayerID, req.Stake, round.ID, betID)
	e.publish(Event{Type: EventBetPlaced, RoundID: round.ID, Bet: snapshotBet(bet)})
}

func (e *Engine) handleCancel(round *Round, req CancelRequest) {
	resp := CancelResponse{}
	defer func() {
		if req.ResponseChan != nil {
			req.ResponseChan <- resp
		}
	}()

	bet, ok := round.Bets[req.BetID]
	if !ok || bet.PlayerID != req.PlayerID {
		resp.Reason = ErrBetNotFound.Error()
		return
	}
	if bet.Status != BetPending {
		resp.Reason = ErrBetNotPending.Error()
		return
	}

	bet.Status = BetCancelled
	delete(round.Bets, req.BetID)
	e.credit(bet.PlayerID, bet.Stake, IdemKey(round.ID, bet.ID, LedgerKindRefund))

	resp.Success = true
	resp.Refunded = bet.Stake
	log.Printf("[BET] player %s cancelled %s, refunded %.2f", req.PlayerID, req.BetID, bet.Stake)
}

func (e *Engine) handleCashout(round *Round, req CashoutRequest) {
	resp := CashoutResponse{}
	defer func() {
		if req.ResponseChan != nil {
			req.ResponseChan <- resp
		}
	}()

	bet, ok := round.Bets[req.BetID]
	if !ok || bet.PlayerID != req.PlayerID {
		resp.Reason = ErrBetNotFound.Error()
		return
	}
	if bet.Status != BetActive {
		resp.Reason = ErrBetNotActive.Error()
		return
	}

	e.settleCashout(round, bet, round.CurrentMult)
	resp.Success = true
	resp.Multiplier = bet.CashoutMultiplier
	resp.Payout = bet.Payout
}

// settleCashout moves an Active bet to CashedOut at the given multiplier,
// credits the payout and records statistics. Terminal and final.
func (e *Engine) settleCashout(round *Round, bet *Bet, multiplier float64) {
	bet.Status = BetCashedOut
	bet.CashoutMultiplier = multiplier
	bet.Payout = truncate2(bet.Stake * multiplier)

	e.credit(bet.PlayerID, bet.Payout, IdemKey(round.ID, bet.ID, LedgerKindPayout))
	e.stats.RecordSettlement(bet)

	log.Printf("[CASHOUT] player %s cashed out %s at %.2fx, payout %.2f",
		bet.PlayerID, bet.ID, multiplier, bet.Payout)
	e.publish(Event{
		Type:       EventBetSettled,
		RoundID:    round.ID,
		Multiplier: multiplier,
		Bet:        snapshotBet(bet),
	})
}

func (e *Engine) settleLoss(round *Round, bet *Bet) {
	bet.Status = BetLost
	e.stats.RecordSettlement(bet)

	log.Printf("[LOSS] player %s lost %.2f on round %d", bet.PlayerID, bet.Stake, round.ID)
	e.publish(Event{
		Type:       EventBetSettled,
		RoundID:    round.ID,
		Multiplier: round.CrashPoint,
		Bet:        snapshotBet(bet),
	})
}

// refundOpenBets returns stakes for bets that never resolved because the
// engine shut down mid-round.
func (e *Engine) refundOpenBets(round *Round) {
	for _, bet := range round.Bets {
		if bet.Status == BetPending || bet.Status == BetActive {
			bet.Status = BetCancelled
			e.credit(bet.PlayerID, bet.Stake, IdemKey(round.ID, bet.ID, LedgerKindRefund))
			log.Printf("[ENGINE] shutdown refund %.2f to %s (%s)", bet.Stake, bet.PlayerID, bet.ID)
		}
	}
}

func snapshotBet(bet *Bet) *Bet {
	copied := *bet
	return &copied
}
