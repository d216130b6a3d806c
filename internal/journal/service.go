// Package journal implements the trade workflow: creating, updating and
// deleting journal entries with their wallet effects applied atomically.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tradelog-backend/internal/charges"
	"tradelog-backend/internal/ledger"
	"tradelog-backend/internal/models"
	"tradelog-backend/internal/repository"
	"tradelog-backend/internal/risk"
)

// ErrIncompleteTrade marks input the calculator cannot compute an outcome
// for. Persisted trades must carry recomputable numbers, so unlike the
// preview path this is a hard rejection.
var ErrIncompleteTrade = errors.New("trade input is incomplete or invalid")

// Notifier announces trade events. Satisfied by notifications.Sender.
type Notifier interface {
	Send(msg string)
}

type Service struct {
	trades *repository.TradeRepo
	led    *ledger.Ledger
	guard  *risk.Guardian
	notify Notifier
}

func NewService(trades *repository.TradeRepo, led *ledger.Ledger, guard *risk.Guardian, notify Notifier) *Service {
	return &Service{trades: trades, led: led, guard: guard, notify: notify}
}

// TradeInput carries the raw trade fields from the client. All derived
// numbers (capital, charges, profit) are recomputed server side and never
// trusted from the request.
type TradeInput struct {
	TradeDateTime time.Time `json:"tradeDateTime"`
	EntryTime     time.Time `json:"entryTime"`
	ExitTime      time.Time `json:"exitTime"`
	Symbol        string    `json:"symbol"`
	Instrument    string    `json:"instrumentType"`
	Side          string    `json:"side"`
	Quantity      int       `json:"quantity"`
	EntryPrice    float64   `json:"entryPrice"`
	ExitPrice     float64   `json:"exitPrice"`
	StopLoss      *float64  `json:"stopLoss"`
	TargetPrice   *float64  `json:"targetPrice"`
	Note          string    `json:"note"`
}

func (in TradeInput) ChargesInput() charges.Input {
	return charges.Input{
		EntryPrice: in.EntryPrice,
		ExitPrice:  in.ExitPrice,
		Quantity:   in.Quantity,
		Side:       charges.Side(in.Side),
		Instrument: charges.Instrument(in.Instrument),
	}
}

func (in TradeInput) toTrade(userID int64, out charges.Outcome) *models.Trade {
	return &models.Trade{
		UserID:        userID,
		TradeDateTime: in.TradeDateTime,
		EntryTime:     in.EntryTime,
		ExitTime:      in.ExitTime,
		Symbol:        in.Symbol,
		Instrument:    in.Instrument,
		Side:          in.Side,
		Quantity:      in.Quantity,
		EntryPrice:    in.EntryPrice,
		ExitPrice:     in.ExitPrice,
		StopLoss:      in.StopLoss,
		TargetPrice:   in.TargetPrice,
		CapitalUsed:   out.CapitalUsed,
		GrossProfit:   out.GrossProfit,
		TotalCharges:  out.Charges.Total,
		NetProfit:     out.NetProfit,
		Note:          in.Note,
	}
}

// Create validates the trade, checks funds and limits, then persists the
// trade row and applies its outcome to the wallet in one transaction. If
// either write fails, neither is applied.
//
// The funds gate compares capitalUsed against the locked balance but the
// balance itself only ever moves by netProfit: trade capital is logically
// withdrawn and returned within the same completed trade.
func (s *Service) Create(ctx context.Context, userID int64, in TradeInput) (*models.Trade, error) {
	out, ok := charges.Compute(in.ChargesInput())
	if !ok {
		return nil, ErrIncompleteTrade
	}

	if s.guard != nil {
		if err := s.guard.PreTradeCheck(ctx, userID, out.CapitalUsed); err != nil {
			return nil, err
		}
	}

	var created *models.Trade
	err := s.led.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		if w.Balance < out.CapitalUsed {
			return fmt.Errorf("%w: balance ₹%.2f, need ₹%.2f",
				ledger.ErrInsufficientFunds, w.Balance, out.CapitalUsed)
		}
		var err error
		created, err = s.trades.WithTx(tx).Create(ctx, in.toTrade(userID, out))
		if err != nil {
			return err
		}
		return s.led.ApplyOutcomeTx(ctx, tx, w, created.NetProfit, created.ID, created.CapitalUsed)
	})
	if err != nil {
		return nil, err
	}

	s.announce(created, "logged")
	return created, nil
}

// Update recomputes the outcome from the new input. When the net profit
// changes, the old outcome is reversed and the new one applied inside the
// same transaction, so a later deletion always reverses exactly the amount
// currently reflected in the wallet.
func (s *Service) Update(ctx context.Context, userID, id int64, in TradeInput) (*models.Trade, error) {
	out, ok := charges.Compute(in.ChargesInput())
	if !ok {
		return nil, ErrIncompleteTrade
	}

	var updated *models.Trade
	err := s.led.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		trades := s.trades.WithTx(tx)
		existing, err := trades.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		t := in.toTrade(userID, out)
		t.ID = id
		updated, err = trades.Update(ctx, t)
		if err != nil {
			return err
		}

		if existing.NetProfit != updated.NetProfit {
			if err := s.led.ReverseOutcomeTx(ctx, tx, w, existing.NetProfit, id); err != nil {
				return err
			}
			if err := s.led.ApplyOutcomeTx(ctx, tx, w, updated.NetProfit, id, updated.CapitalUsed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(updated, "updated")
	return updated, nil
}

// Delete reverses the trade's stored netProfit and removes the row in one
// transaction. Returns the wallet balance after the reversal.
func (s *Service) Delete(ctx context.Context, userID, id int64) (float64, error) {
	var newBalance float64
	err := s.led.RunInWalletTx(ctx, userID, func(tx pgx.Tx, w *models.Wallet) error {
		trades := s.trades.WithTx(tx)
		t, err := trades.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.led.ReverseOutcomeTx(ctx, tx, w, t.NetProfit, id); err != nil {
			return err
		}
		if err := trades.Delete(ctx, userID, id); err != nil {
			return err
		}
		newBalance = w.Balance
		return nil
	})
	return newBalance, err
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*models.Trade, error) {
	return s.trades.GetByID(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID int64, limit int) ([]models.Trade, error) {
	return s.trades.GetAll(ctx, userID, limit)
}

func (s *Service) ListByDay(ctx context.Context, userID int64, tradingDay string) ([]models.Trade, error) {
	return s.trades.GetByDay(ctx, userID, tradingDay)
}

func (s *Service) Stats(ctx context.Context, userID int64) (*models.TradeStats, error) {
	return s.trades.GetStats(ctx, userID)
}

func (s *Service) announce(t *models.Trade, action string) {
	if s.notify == nil {
		return
	}
	result := fmt.Sprintf("profit ₹%.2f", t.NetProfit)
	if t.NetProfit < 0 {
		result = fmt.Sprintf("loss ₹%.2f", -t.NetProfit)
	}
	s.notify.Send(fmt.Sprintf("Trade %s: %s %s %s x%d — %s",
		action, t.Side, t.Instrument, t.Symbol, t.Quantity, result))
}
