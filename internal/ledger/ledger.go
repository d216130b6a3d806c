// Package ledger owns the per-user wallet balance and its append-only
// transaction audit trail. It is the only component that mutates wallets.
//
// Every mutation runs inside a database transaction that locks the wallet row
// (SELECT ... FOR UPDATE), so read-validate-mutate-append executes as one
// atomic unit per user: two concurrent trade submissions cannot both pass a
// funds check against the same stale balance.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradelog-backend/internal/models"
	"tradelog-backend/internal/repository"
)

const maxTxAttempts = 2

type Ledger struct {
	pool    *pgxpool.Pool
	wallets *repository.WalletRepo
	txns    *repository.TransactionRepo
}

func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{
		pool:    pool,
		wallets: repository.NewWalletRepo(pool),
		txns:    repository.NewTransactionRepo(pool),
	}
}

// Ensure lazily creates the user's wallet (balance 0) and returns it.
func (l *Ledger) Ensure(ctx context.Context, userID int64) (*models.Wallet, error) {
	return l.wallets.Ensure(ctx, userID)
}

// Balance returns the user's current balance, creating the wallet if needed.
func (l *Ledger) Balance(ctx context.Context, userID int64) (float64, error) {
	w, err := l.Ensure(ctx, userID)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Transactions returns the user's audit trail, newest first.
func (l *Ledger) Transactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	return l.txns.GetByUser(ctx, userID, limit)
}

// RunInWalletTx locks the user's wallet row (creating the wallet if missing)
// and runs fn inside the transaction. fn receives the locked wallet snapshot
// and a pgx.Tx it can use to persist other rows in the same atomic unit.
// Serialization failures and deadlocks are retried once before surfacing
// ErrConflict.
func (l *Ledger) RunInWalletTx(ctx context.Context, userID int64, fn func(tx pgx.Tx, w *models.Wallet) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := l.runOnce(ctx, userID, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		fmt.Printf("[LEDGER] Wallet tx conflict for user %d (attempt %d/%d): %v\n",
			userID, attempt, maxTxAttempts, err)
	}
	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (l *Ledger) runOnce(ctx context.Context, userID int64, fn func(tx pgx.Tx, w *models.Wallet) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin wallet tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	w, err := l.wallets.WithTx(tx).EnsureForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("lock wallet: %w", err)
	}

	if err := fn(tx, w); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// Deposit adds funds to the wallet and appends a deposit transaction.
func (l *Ledger) Deposit(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	var newBalance float64
	err := l.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		w.Balance += amount
		w.TotalDeposited += amount
		if err := l.wallets.WithTx(tx).Save(ctx, w); err != nil {
			return err
		}
		_, err := l.txns.WithTx(tx).Append(ctx, &models.Transaction{
			UserID:      userID,
			Kind:        models.TxnDeposit,
			Amount:      amount,
			Description: "Added funds to wallet",
		})
		if err != nil {
			return err
		}
		newBalance = w.Balance
		return nil
	})
	return newBalance, err
}

// Withdraw removes funds from the wallet and appends a withdrawal transaction.
func (l *Ledger) Withdraw(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	var newBalance float64
	err := l.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		if w.Balance < amount {
			return ErrInsufficientBalance
		}
		w.Balance -= amount
		if err := l.wallets.WithTx(tx).Save(ctx, w); err != nil {
			return err
		}
		_, err := l.txns.WithTx(tx).Append(ctx, &models.Transaction{
			UserID:      userID,
			Kind:        models.TxnWithdrawal,
			Amount:      amount,
			Description: "Withdrew funds from wallet",
		})
		if err != nil {
			return err
		}
		newBalance = w.Balance
		return nil
	})
	return newBalance, err
}

// ResetToZero zeroes a positive balance, logging the full prior amount as a
// withdrawal. Fails with ErrWalletEmpty when there is nothing to reset.
func (l *Ledger) ResetToZero(ctx context.Context, userID int64) (float64, error) {
	err := l.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		if w.Balance <= 0 {
			return ErrWalletEmpty
		}
		prior := w.Balance
		w.Balance = 0
		if err := l.wallets.WithTx(tx).Save(ctx, w); err != nil {
			return err
		}
		_, err := l.txns.WithTx(tx).Append(ctx, &models.Transaction{
			UserID:      userID,
			Kind:        models.TxnWithdrawal,
			Amount:      prior,
			Description: fmt.Sprintf("Wallet reset to zero (previous balance ₹%.2f)", prior),
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return 0, nil
}

// ApplyOutcomeTx credits or debits a trade's net profit against the locked
// wallet and appends the matching audit entry. The balance moves by exactly
// netProfit: capital is checked by the caller but never deducted, since it is
// logically withdrawn and returned within the same trade.
func (l *Ledger) ApplyOutcomeTx(ctx context.Context, tx pgx.Tx, w *models.Wallet, netProfit float64, tradeID int64, capitalUsed float64) error {
	w.Balance += netProfit
	if err := l.wallets.WithTx(tx).Save(ctx, w); err != nil {
		return err
	}

	kind := models.TxnDeposit
	desc := fmt.Sprintf("Trade profit: ₹%.2f (capital used: ₹%.2f)", netProfit, capitalUsed)
	if netProfit < 0 {
		kind = models.TxnWithdrawal
		desc = fmt.Sprintf("Trade loss: ₹%.2f (capital used: ₹%.2f)", -netProfit, capitalUsed)
	}
	_, err := l.txns.WithTx(tx).Append(ctx, &models.Transaction{
		UserID:      w.UserID,
		Kind:        kind,
		Amount:      math.Abs(netProfit),
		Description: desc,
		TradeID:     &tradeID,
	})
	return err
}

// ReverseOutcomeTx is the exact inverse of ApplyOutcomeTx: it subtracts the
// originally applied netProfit, regardless of balance changes from other
// trades since, and appends the opposite-signed audit entry.
func (l *Ledger) ReverseOutcomeTx(ctx context.Context, tx pgx.Tx, w *models.Wallet, netProfit float64, tradeID int64) error {
	w.Balance -= netProfit
	if err := l.wallets.WithTx(tx).Save(ctx, w); err != nil {
		return err
	}

	kind := models.TxnWithdrawal
	if netProfit < 0 {
		kind = models.TxnDeposit
	}
	_, err := l.txns.WithTx(tx).Append(ctx, &models.Transaction{
		UserID:      w.UserID,
		Kind:        kind,
		Amount:      math.Abs(netProfit),
		Description: fmt.Sprintf("Reversed trade P/L: ₹%.2f", netProfit),
		TradeID:     &tradeID,
	})
	return err
}

// ApplyTradeOutcome runs ApplyOutcomeTx in its own wallet-locked transaction.
// Trade creation uses RunInWalletTx directly instead, so the trade row and the
// ledger effect commit together.
func (l *Ledger) ApplyTradeOutcome(ctx context.Context, userID int64, netProfit float64, tradeID int64, capitalUsed float64) (float64, error) {
	var newBalance float64
	err := l.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		if err := l.ApplyOutcomeTx(ctx, tx, w, netProfit, tradeID, capitalUsed); err != nil {
			return err
		}
		newBalance = w.Balance
		return nil
	})
	return newBalance, err
}

// ReverseTradeOutcome runs ReverseOutcomeTx in its own wallet-locked
// transaction.
func (l *Ledger) ReverseTradeOutcome(ctx context.Context, userID int64, netProfit float64, tradeID int64) (float64, error) {
	var newBalance float64
	err := l.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		if err := l.ReverseOutcomeTx(ctx, tx, w, netProfit, tradeID); err != nil {
			return err
		}
		newBalance = w.Balance
		return nil
	})
	return newBalance, err
}
