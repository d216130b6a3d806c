package risk

import (
	"context"
	"errors"
	"fmt"
)

// ErrBlocked wraps every guardian rejection so callers can map it to a
// client error without string matching.
var ErrBlocked = errors.New("trade blocked")

// DailyTradeCounter abstracts the trade-counting dependency so Guardian
// can be tested without a real database.
type DailyTradeCounter interface {
	CountToday(ctx context.Context, userID int64) (int, error)
}

// Limits holds the journal's pre-trade thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	MaxDailyTrades     int
	MaxCapitalPerTrade float64
}

type Guardian struct {
	limits  Limits
	counter DailyTradeCounter
}

func NewGuardian(limits Limits, counter DailyTradeCounter) *Guardian {
	return &Guardian{limits: limits, counter: counter}
}

// PreTradeCheck validates per-trade constraints before a trade is logged.
// Returns nil if the trade is allowed, a descriptive error if blocked.
// The wallet-balance funds gate is not checked here: it needs the wallet row
// lock, so it lives inside the ledger transaction.
func (g *Guardian) PreTradeCheck(ctx context.Context, userID int64, capitalUsed float64) error {
	if g.limits.MaxCapitalPerTrade > 0 && capitalUsed > g.limits.MaxCapitalPerTrade {
		return fmt.Errorf("%w: capital ₹%.2f exceeds per-trade limit ₹%.2f",
			ErrBlocked, capitalUsed, g.limits.MaxCapitalPerTrade)
	}

	if g.limits.MaxDailyTrades > 0 && g.counter != nil {
		count, err := g.counter.CountToday(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: unable to verify daily trade count: %v", ErrBlocked, err)
		}
		if count >= g.limits.MaxDailyTrades {
			return fmt.Errorf("%w: daily limit of %d trades reached (%d logged today)",
				ErrBlocked, g.limits.MaxDailyTrades, count)
		}
	}

	return nil
}
