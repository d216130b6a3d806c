package models

import "time"

type Trade struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"-"`
	TradeDateTime time.Time `json:"tradeDateTime"`
	EntryTime     time.Time `json:"entryTime"`
	ExitTime      time.Time `json:"exitTime"`
	Symbol        string    `json:"symbol"`
	Instrument    string    `json:"instrumentType"` // "Stock" or "Option"
	Side          string    `json:"side"`           // "Buy" or "Sell"
	Quantity      int       `json:"quantity"`
	EntryPrice    float64   `json:"entryPrice"`
	ExitPrice     float64   `json:"exitPrice"`
	StopLoss      *float64  `json:"stopLoss,omitempty"`
	TargetPrice   *float64  `json:"targetPrice,omitempty"`
	CapitalUsed   float64   `json:"capitalUsed"`
	GrossProfit   float64   `json:"grossProfit"`
	TotalCharges  float64   `json:"totalCharges"`
	NetProfit     float64   `json:"netProfit"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type TradeStats struct {
	TotalTrades     int64    `json:"totalTrades"`
	TotalCapital    *float64 `json:"totalCapital"`
	TotalProfitLoss *float64 `json:"totalProfitLoss"`
	AvgProfitLoss   *float64 `json:"avgProfitLoss"`
	Wins            int64    `json:"wins"`
	Losses          int64    `json:"losses"`
	WinRate         float64  `json:"winRate"`
}
