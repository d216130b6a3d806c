package models

import "time"

// Wallet is the per-user virtual balance. One row per user, created lazily,
// never deleted. Mutated only by the ledger under a row lock.
type Wallet struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	Balance        float64   `json:"balance"`
	TotalDeposited float64   `json:"totalDeposited"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

const (
	TxnDeposit    = "deposit"
	TxnWithdrawal = "withdrawal"
)

// Transaction is one entry of the append-only wallet audit trail. The signed
// sum of a user's transactions (deposit +, withdrawal -) always equals the
// wallet balance.
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Kind        string    `json:"kind"` // "deposit" or "withdrawal"
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	TradeID     *int64    `json:"tradeId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Signed returns the transaction amount with its ledger sign applied.
func (t Transaction) Signed() float64 {
	if t.Kind == TxnWithdrawal {
		return -t.Amount
	}
	return t.Amount
}
