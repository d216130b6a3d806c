package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tradelog-backend/internal/models"
)

var ErrWalletNotFound = errors.New("wallet not found")

type WalletRepo struct {
	db Querier
}

func NewWalletRepo(db Querier) *WalletRepo {
	return &WalletRepo{db: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *WalletRepo) WithTx(tx pgx.Tx) *WalletRepo {
	return &WalletRepo{db: tx}
}

// Ensure creates the user's wallet if it does not exist and returns it.
// Idempotent: an existing wallet is returned unchanged.
func (r *WalletRepo) Ensure(ctx context.Context, userID int64) (*models.Wallet, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO wallets (user_id, balance, total_deposited)
		 VALUES ($1, 0, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

func (r *WalletRepo) Get(ctx context.Context, userID int64) (*models.Wallet, error) {
	row := r.db.QueryRow(ctx,
		`SELECT * FROM wallets WHERE user_id = $1`,
		userID,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

// GetForUpdate locks the wallet row for the duration of the enclosing
// transaction. Call only on a tx-bound repo.
func (r *WalletRepo) GetForUpdate(ctx context.Context, userID int64) (*models.Wallet, error) {
	row := r.db.QueryRow(ctx,
		`SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`,
		userID,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

// EnsureForUpdate creates the wallet if missing and returns it with its row
// locked for the enclosing transaction. Call only on a tx-bound repo.
func (r *WalletRepo) EnsureForUpdate(ctx context.Context, userID int64) (*models.Wallet, error) {
	w, err := r.GetForUpdate(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO wallets (user_id, balance, total_deposited)
		 VALUES ($1, 0, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return r.GetForUpdate(ctx, userID)
}

// Save persists a wallet's balance and totalDeposited.
func (r *WalletRepo) Save(ctx context.Context, w *models.Wallet) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE wallets SET balance = $2, total_deposited = $3, updated_at = NOW()
		 WHERE user_id = $1`,
		w.UserID, w.Balance, w.TotalDeposited,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// GetAll returns every wallet, for reconciliation sweeps.
func (r *WalletRepo) GetAll(ctx context.Context) ([]models.Wallet, error) {
	rows, err := r.db.Query(ctx, `SELECT * FROM wallets ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalDeposited,
			&w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWallet(row scannable) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalDeposited,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
