package ledger_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tradelog-backend/internal/ledger"
	"tradelog-backend/internal/models"
	"tradelog-backend/internal/repository"
	"tradelog-backend/internal/testutil"
)

func TestLedger_DepositWithdrawReset(t *testing.T) {
	pool := testutil.SetupPool(t)
	userID := testutil.SeedUser(t, pool)
	led := ledger.New(pool)
	ctx := context.Background()

	// Fresh wallet starts at zero
	balance, err := led.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("new wallet balance: got %f", balance)
	}

	// Deposit
	balance, err = led.Deposit(ctx, userID, 5000)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if balance != 5000 {
		t.Fatalf("after deposit: got %f", balance)
	}

	// Withdraw part
	balance, err = led.Withdraw(ctx, userID, 1200.50)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if balance != 3799.50 {
		t.Fatalf("after withdraw: got %f", balance)
	}

	// Over-withdraw rejected, balance untouched
	if _, err := led.Withdraw(ctx, userID, 1e6); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	balance, _ = led.Balance(ctx, userID)
	if balance != 3799.50 {
		t.Fatalf("failed withdraw must not move balance: got %f", balance)
	}

	// Reset to zero logs the prior balance as a withdrawal
	balance, err = led.ResetToZero(ctx, userID)
	if err != nil {
		t.Fatalf("ResetToZero: %v", err)
	}
	if balance != 0 {
		t.Fatalf("after reset: got %f", balance)
	}

	// Resetting an empty wallet fails
	if _, err := led.ResetToZero(ctx, userID); !errors.Is(err, ledger.ErrWalletEmpty) {
		t.Fatalf("expected ErrWalletEmpty, got %v", err)
	}

	// Audit trail: reset, withdrawal, deposit (newest first), summing to zero
	txns, err := led.Transactions(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	var sum float64
	for _, txn := range txns {
		sum += txn.Signed()
	}
	if math.Abs(sum) > 0.005 {
		t.Fatalf("ledger should sum to zero after reset, got %f", sum)
	}
	t.Logf("Audit trail: %d entries, signed sum %.2f", len(txns), sum)
}

func TestLedger_InvalidAmounts(t *testing.T) {
	pool := testutil.SetupPool(t)
	userID := testutil.SeedUser(t, pool)
	led := ledger.New(pool)
	ctx := context.Background()

	bad := []float64{0, -100, math.NaN(), math.Inf(1)}
	for _, amt := range bad {
		if _, err := led.Deposit(ctx, userID, amt); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Fatalf("Deposit(%f): expected ErrInvalidAmount, got %v", amt, err)
		}
		if _, err := led.Withdraw(ctx, userID, amt); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Fatalf("Withdraw(%f): expected ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestLedger_ApplyReverseRoundtrip(t *testing.T) {
	pool := testutil.SetupPool(t)
	userID := testutil.SeedUser(t, pool)
	led := ledger.New(pool)
	txns := repository.NewTransactionRepo(pool)
	ctx := context.Background()

	if _, err := led.Deposit(ctx, userID, 10000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	trade := createTrade(t, pool, userID, 994.27)

	// Profit credits the wallet
	balance, err := led.ApplyTradeOutcome(ctx, userID, 994.27, trade, 10000)
	if err != nil {
		t.Fatalf("ApplyTradeOutcome: %v", err)
	}
	if balance != 10994.27 {
		t.Fatalf("after profit: got %f", balance)
	}

	// Ledger matches wallet
	sum, err := txns.SignedSum(ctx, userID)
	if err != nil {
		t.Fatalf("SignedSum: %v", err)
	}
	if math.Abs(sum-balance) > 0.005 {
		t.Fatalf("ledger sum %.2f != balance %.2f", sum, balance)
	}

	// Reversal restores the pre-trade balance exactly
	balance, err = led.ReverseTradeOutcome(ctx, userID, 994.27, trade)
	if err != nil {
		t.Fatalf("ReverseTradeOutcome: %v", err)
	}
	if balance != 10000 {
		t.Fatalf("after reversal: got %f", balance)
	}

	// Both audit entries reference the trade
	count, err := txns.CountByTrade(ctx, trade)
	if err != nil {
		t.Fatalf("CountByTrade: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 entries for trade, got %d", count)
	}
	t.Logf("Roundtrip OK: balance restored to %.2f with %d audit entries", balance, count)
}

func TestLedger_LossOutcome(t *testing.T) {
	pool := testutil.SetupPool(t)
	userID := testutil.SeedUser(t, pool)
	led := ledger.New(pool)
	ctx := context.Background()

	if _, err := led.Deposit(ctx, userID, 1000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	trade := createTrade(t, pool, userID, -1500)

	// Losses can push the balance negative: the gate is checked at trade
	// creation against capital, not the loss
	balance, err := led.ApplyTradeOutcome(ctx, userID, -1500, trade, 1000)
	if err != nil {
		t.Fatalf("ApplyTradeOutcome: %v", err)
	}
	if balance != -500 {
		t.Fatalf("after loss: got %f", balance)
	}

	// Reversing a loss credits it back
	balance, err = led.ReverseTradeOutcome(ctx, userID, -1500, trade)
	if err != nil {
		t.Fatalf("ReverseTradeOutcome: %v", err)
	}
	if balance != 1000 {
		t.Fatalf("after reversing loss: got %f", balance)
	}
}

func TestLedger_ConcurrentDeposits(t *testing.T) {
	pool := testutil.SetupPool(t)
	userID := testutil.SeedUser(t, pool)
	led := ledger.New(pool)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := led.Deposit(ctx, userID, 100); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent deposit: %v", err)
	}

	balance, err := led.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != workers*100 {
		t.Fatalf("expected %.2f after %d concurrent deposits, got %f",
			float64(workers*100), workers, balance)
	}
	t.Logf("Concurrent deposits: balance %.2f", balance)
}

func TestLedger_Reconcile(t *testing.T) {
	pool := testutil.SetupPool(t)
	userID := testutil.SeedUser(t, pool)
	led := ledger.New(pool)
	ctx := context.Background()

	if _, err := led.Deposit(ctx, userID, 750); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := led.Withdraw(ctx, userID, 250); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	drifts, err := led.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	for _, d := range drifts {
		if d.UserID == userID {
			t.Fatalf("unexpected drift for healthy wallet: %+v", d)
		}
	}

	// Corrupt the balance behind the ledger's back
	if _, err := pool.Exec(ctx,
		`UPDATE wallets SET balance = balance + 123.45 WHERE user_id = $1`, userID); err != nil {
		t.Fatalf("corrupt wallet: %v", err)
	}

	drifts, err = led.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile(after corruption): %v", err)
	}
	var found *ledger.Drift
	for i := range drifts {
		if drifts[i].UserID == userID {
			found = &drifts[i]
		}
	}
	if found == nil {
		t.Fatal("expected drift for corrupted wallet")
	}
	if math.Abs(found.Delta-123.45) > 0.005 {
		t.Fatalf("drift delta: got %f, want 123.45", found.Delta)
	}
	t.Logf("Drift detected: balance=%.2f ledger=%.2f delta=%.2f",
		found.Balance, found.LedgerSum, found.Delta)
}

// createTrade inserts a minimal trade row so ledger entries have a valid
// trade_id to reference.
func createTrade(t *testing.T, pool *pgxpool.Pool, userID int64, netProfit float64) int64 {
	t.Helper()
	created, err := repository.NewTradeRepo(pool).Create(context.Background(), &models.Trade{
		UserID:       userID,
		Symbol:       "NIFTY",
		Instrument:   "Option",
		Side:         "Buy",
		Quantity:     75,
		EntryPrice:   100,
		ExitPrice:    120,
		CapitalUsed:  7500,
		GrossProfit:  1500,
		TotalCharges: 8.47,
		NetProfit:    netProfit,
	})
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}
	return created.ID
}
