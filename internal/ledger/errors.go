package ledger

import "errors"

// Ledger failures are typed so callers can map them to API responses with
// errors.Is. None of them leaves partial wallet/transaction state behind:
// every mutation either commits fully or not at all.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientFunds   = errors.New("insufficient funds for trade capital")
	ErrWalletEmpty         = errors.New("wallet balance is already zero")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("concurrent wallet update conflict")
)
