package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"tradelog-backend/internal/models"
)

var ErrTradeNotFound = errors.New("trade not found")

type TradeRepo struct {
	db Querier
}

func NewTradeRepo(db Querier) *TradeRepo {
	return &TradeRepo{db: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *TradeRepo) WithTx(tx pgx.Tx) *TradeRepo {
	return &TradeRepo{db: tx}
}

func (r *TradeRepo) Create(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	ts := t.TradeDateTime
	if ts.IsZero() {
		ts = time.Now()
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO trades
		 (user_id, trade_datetime, entry_time, exit_time, symbol, instrument, side,
		  quantity, entry_price, exit_price, stop_loss, target_price,
		  capital_used, gross_profit, total_charges, net_profit, note)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		 RETURNING *`,
		t.UserID, ts, t.EntryTime, t.ExitTime, t.Symbol, t.Instrument, t.Side,
		t.Quantity, t.EntryPrice, t.ExitPrice, t.StopLoss, t.TargetPrice,
		t.CapitalUsed, t.GrossProfit, t.TotalCharges, t.NetProfit, t.Note,
	)
	return scanTrade(row)
}

// GetByID returns a trade owned by userID, or ErrTradeNotFound.
func (r *TradeRepo) GetByID(ctx context.Context, userID, id int64) (*models.Trade, error) {
	row := r.db.QueryRow(ctx,
		`SELECT * FROM trades WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetAll returns the user's most recent trades, newest first.
func (r *TradeRepo) GetAll(ctx context.Context, userID int64, limit int) ([]models.Trade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT * FROM trades WHERE user_id = $1 ORDER BY trade_datetime DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrades(rows)
}

// GetByDay returns trades whose trade_datetime falls on the given trading day
// (midnight-to-midnight IST).
func (r *TradeRepo) GetByDay(ctx context.Context, userID int64, tradingDay string) ([]models.Trade, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", tradingDay, marketTZ)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx,
		`SELECT * FROM trades
		 WHERE user_id = $1 AND trade_datetime >= $2 AND trade_datetime < $3
		 ORDER BY trade_datetime ASC`,
		userID, dayStart, dayStart.AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrades(rows)
}

func (r *TradeRepo) Update(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE trades SET
		   trade_datetime = $3, entry_time = $4, exit_time = $5, symbol = $6,
		   instrument = $7, side = $8, quantity = $9, entry_price = $10,
		   exit_price = $11, stop_loss = $12, target_price = $13,
		   capital_used = $14, gross_profit = $15, total_charges = $16,
		   net_profit = $17, note = $18, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING *`,
		t.ID, t.UserID, t.TradeDateTime, t.EntryTime, t.ExitTime, t.Symbol,
		t.Instrument, t.Side, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.StopLoss, t.TargetPrice, t.CapitalUsed, t.GrossProfit,
		t.TotalCharges, t.NetProfit, t.Note,
	)
	updated, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *TradeRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM trades WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTradeNotFound
	}
	return nil
}

// GetStats returns aggregate journal statistics for a user.
func (r *TradeRepo) GetStats(ctx context.Context, userID int64) (*models.TradeStats, error) {
	var s models.TradeStats
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*),
			SUM(capital_used),
			SUM(net_profit),
			AVG(net_profit),
			COUNT(CASE WHEN net_profit > 0 THEN 1 END),
			COUNT(CASE WHEN net_profit < 0 THEN 1 END)
		 FROM trades WHERE user_id = $1`,
		userID,
	).Scan(&s.TotalTrades, &s.TotalCapital, &s.TotalProfitLoss,
		&s.AvgProfitLoss, &s.Wins, &s.Losses)
	if err != nil {
		return nil, err
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	}
	return &s, nil
}

// CountDay returns how many trades the user logged on a trading day.
func (r *TradeRepo) CountDay(ctx context.Context, userID int64, tradingDay string) (int, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", tradingDay, marketTZ)
	if err != nil {
		return 0, err
	}
	var count int
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM trades
		 WHERE user_id = $1 AND trade_datetime >= $2 AND trade_datetime < $3`,
		userID, dayStart, dayStart.AddDate(0, 0, 1),
	).Scan(&count)
	return count, err
}

// CountToday satisfies risk.DailyTradeCounter.
func (r *TradeRepo) CountToday(ctx context.Context, userID int64) (int, error) {
	return r.CountDay(ctx, userID, TradingDayNow())
}

// --- scan helpers ---

func scanTrade(row scannable) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(
		&t.ID, &t.UserID, &t.TradeDateTime, &t.EntryTime, &t.ExitTime,
		&t.Symbol, &t.Instrument, &t.Side, &t.Quantity,
		&t.EntryPrice, &t.ExitPrice, &t.StopLoss, &t.TargetPrice,
		&t.CapitalUsed, &t.GrossProfit, &t.TotalCharges, &t.NetProfit,
		&t.Note, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTrades(rows rowsIter) ([]models.Trade, error) {
	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.TradeDateTime, &t.EntryTime, &t.ExitTime,
			&t.Symbol, &t.Instrument, &t.Side, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &t.StopLoss, &t.TargetPrice,
			&t.CapitalUsed, &t.GrossProfit, &t.TotalCharges, &t.NetProfit,
			&t.Note, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
