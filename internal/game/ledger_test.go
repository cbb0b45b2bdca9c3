package game

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryLedger_DebitCredit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.SetBalance("alice", 100)

	balance, err := l.Debit(ctx, "alice", 30, IdemKey(1, "BET-1", LedgerKindStake))
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if balance != 70 {
		t.Errorf("balance after debit = %v, want 70", balance)
	}

	balance, err = l.Credit(ctx, "alice", 60, IdemKey(1, "BET-1", LedgerKindPayout))
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if balance != 130 {
		t.Errorf("balance after credit = %v, want 130", balance)
	}
}

func TestMemoryLedger_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.SetBalance("bob", 10)

	_, err := l.Debit(ctx, "bob", 50, IdemKey(1, "BET-2", LedgerKindStake))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	if balance, _ := l.Balance(ctx, "bob"); balance != 10 {
		t.Errorf("rejected debit changed balance to %v", balance)
	}
}

// Replaying a call with the same idempotency key after a prior success
// must have no additional balance effect.
func TestMemoryLedger_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.SetBalance("carol", 100)

	debitKey := IdemKey(4, "BET-3", LedgerKindStake)
	for i := 0; i < 3; i++ {
		if _, err := l.Debit(ctx, "carol", 25, debitKey); err != nil {
			t.Fatalf("debit replay %d failed: %v", i, err)
		}
	}
	if balance, _ := l.Balance(ctx, "carol"); balance != 75 {
		t.Errorf("balance = %v after replayed debits, want 75", balance)
	}

	creditKey := IdemKey(4, "BET-3", LedgerKindPayout)
	for i := 0; i < 3; i++ {
		if _, err := l.Credit(ctx, "carol", 50, creditKey); err != nil {
			t.Fatalf("credit replay %d failed: %v", i, err)
		}
	}
	if balance, _ := l.Balance(ctx, "carol"); balance != 125 {
		t.Errorf("balance = %v after replayed credits, want 125", balance)
	}
}

func TestMemoryLedger_CreditRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.FailCredits = 2

	key := IdemKey(9, "BET-9", LedgerKindPayout)
	creditWithRetry(ctx, l, "dave", 40, key)

	if balance, _ := l.Balance(ctx, "dave"); balance != 40 {
		t.Errorf("balance = %v after retried credit, want 40", balance)
	}
}

func TestIdemKey_Format(t *testing.T) {
	got := IdemKey(12, "BET-abc-99", LedgerKindRefund)
	want := "12:BET-abc-99:refund"
	if got != want {
		t.Errorf("IdemKey = %q, want %q", got, want)
	}
}
