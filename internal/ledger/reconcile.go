package ledger

import (
	"context"
	"fmt"
	"math"
)

// Balances are cached projections of the transaction log; anything beyond
// float noise between the two means a bug or manual interference.
const driftTolerance = 0.005

// Drift describes a wallet whose cached balance disagrees with the signed sum
// of its transaction log.
type Drift struct {
	UserID    int64   `json:"userId"`
	Balance   float64 `json:"balance"`
	LedgerSum float64 `json:"ledgerSum"`
	Delta     float64 `json:"delta"`
}

// Reconcile sweeps every wallet and compares its balance against the signed
// transaction sum. It reports drift, it never repairs it.
func (l *Ledger) Reconcile(ctx context.Context) ([]Drift, error) {
	wallets, err := l.wallets.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	var drifts []Drift
	for _, w := range wallets {
		sum, err := l.txns.SignedSum(ctx, w.UserID)
		if err != nil {
			return nil, fmt.Errorf("sum transactions for user %d: %w", w.UserID, err)
		}
		delta := w.Balance - sum
		if math.Abs(delta) > driftTolerance {
			drifts = append(drifts, Drift{
				UserID:    w.UserID,
				Balance:   w.Balance,
				LedgerSum: sum,
				Delta:     delta,
			})
		}
	}
	return drifts, nil
}
