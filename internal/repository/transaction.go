package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tradelog-backend/internal/models"
)

// TransactionRepo manages the append-only wallet audit trail. Rows are never
// updated or deleted.
type TransactionRepo struct {
	db Querier
}

func NewTransactionRepo(db Querier) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *TransactionRepo) WithTx(tx pgx.Tx) *TransactionRepo {
	return &TransactionRepo{db: tx}
}

func (r *TransactionRepo) Append(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO transactions (user_id, kind, amount, description, trade_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING *`,
		t.UserID, t.Kind, t.Amount, t.Description, t.TradeID,
	)
	return scanTransaction(row)
}

// GetByUser returns the user's transactions, newest first.
func (r *TransactionRepo) GetByUser(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT * FROM transactions WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// SignedSum returns the user's ledger sum: deposits positive, withdrawals
// negative. By the ledger invariant this always equals the wallet balance.
func (r *TransactionRepo) SignedSum(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(CASE WHEN kind = 'deposit' THEN amount ELSE -amount END), 0)
		 FROM transactions WHERE user_id = $1`,
		userID,
	).Scan(&sum)
	return sum, err
}

// CountByTrade returns how many audit entries reference a trade.
func (r *TransactionRepo) CountByTrade(ctx context.Context, tradeID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE trade_id = $1`,
		tradeID,
	).Scan(&count)
	return count, err
}

// --- scan helpers ---

func scanTransaction(row scannable) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount,
		&t.Description, &t.TradeID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows rowsIter) ([]models.Transaction, error) {
	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount,
			&t.Description, &t.TradeID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
