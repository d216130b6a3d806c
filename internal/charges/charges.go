// Package charges computes brokerage, statutory charges and net profit/loss
// for a completed trade using the Zerodha intraday charge schedule.
// It is pure: no I/O, no clock, no state. Identical inputs always produce
// identical outputs.
package charges

import "math"

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

type Instrument string

const (
	InstrumentStock  Instrument = "Stock"
	InstrumentOption Instrument = "Option"
)

// Charge schedule constants. Rates are per-executed-trade (entry + exit legs
// combined, which is why turnover counts both prices).
const (
	optionBrokerageRate = 0.0003 // 0.03% of capital, applied twice (two legs)
	optionBrokerageCap  = 40.00
	optionSTTRate       = 0.00025
	optionExchangeRate  = 0.0000345

	stockBrokerageFlat = 20.00
	stockSTTRate       = 0.000625
	stockExchangeRate  = 0.0005

	sebiRate      = 0.000001
	stampDutyRate = 0.00003
	gstRate       = 0.18
)

type Input struct {
	EntryPrice float64
	ExitPrice  float64
	Quantity   int
	Side       Side
	Instrument Instrument
}

// Breakdown itemizes every charge component. All fields are rounded to two
// decimals; Total is the rounded sum of the unrounded components, so it can
// differ from the sum of the rounded parts by at most a paisa.
type Breakdown struct {
	Brokerage   float64 `json:"brokerage"`
	STT         float64 `json:"stt"`
	ExchangeTxn float64 `json:"exchangeTxn"`
	SEBICharges float64 `json:"sebiCharges"`
	StampDuty   float64 `json:"stampDuty"`
	GST         float64 `json:"gst"`
	Total       float64 `json:"totalCharges"`
}

type Outcome struct {
	Turnover    float64   `json:"turnover"`
	CapitalUsed float64   `json:"capitalUsed"`
	GrossProfit float64   `json:"grossProfit"`
	Charges     Breakdown `json:"charges"`
	NetProfit   float64   `json:"netProfit"`
}

// Valid reports whether the input describes a computable trade. Zero prices
// count as incomplete rather than invalid: a half-filled entry form sends
// zeros, and we must not confuse that with a real trade.
func (in Input) Valid() bool {
	if math.IsNaN(in.EntryPrice) || math.IsInf(in.EntryPrice, 0) ||
		math.IsNaN(in.ExitPrice) || math.IsInf(in.ExitPrice, 0) {
		return false
	}
	if in.EntryPrice <= 0 || in.ExitPrice <= 0 || in.Quantity <= 0 {
		return false
	}
	if in.Side != SideBuy && in.Side != SideSell {
		return false
	}
	if in.Instrument != InstrumentStock && in.Instrument != InstrumentOption {
		return false
	}
	return true
}

// Compute returns the full charge breakdown and profit figures for a trade.
// ok is false when the input is incomplete or invalid; the zero Outcome it
// returns then is a "not yet computable" marker, not a zero-profit trade.
//
// Intermediate sums keep full float precision; only the exposed fields are
// rounded, once, to two decimals.
func Compute(in Input) (Outcome, bool) {
	if !in.Valid() {
		return Outcome{}, false
	}

	qty := float64(in.Quantity)
	turnover := (in.EntryPrice + in.ExitPrice) * qty
	capitalUsed := in.EntryPrice * qty

	var gross float64
	if in.Side == SideBuy {
		gross = (in.ExitPrice - in.EntryPrice) * qty
	} else {
		gross = (in.EntryPrice - in.ExitPrice) * qty
	}

	var brokerage, stt, exchange float64
	if in.Instrument == InstrumentOption {
		brokerage = math.Min(capitalUsed*optionBrokerageRate*2, optionBrokerageCap)
		stt = in.ExitPrice * qty * optionSTTRate
		exchange = turnover * optionExchangeRate
	} else {
		brokerage = stockBrokerageFlat
		stt = in.ExitPrice * qty * stockSTTRate
		exchange = turnover * stockExchangeRate
	}

	sebi := turnover * sebiRate
	stamp := in.EntryPrice * qty * stampDutyRate
	gst := gstRate * (brokerage + exchange)

	total := brokerage + stt + exchange + sebi + stamp + gst

	return Outcome{
		Turnover:    round2(turnover),
		CapitalUsed: round2(capitalUsed),
		GrossProfit: round2(gross),
		Charges: Breakdown{
			Brokerage:   round2(brokerage),
			STT:         round2(stt),
			ExchangeTxn: round2(exchange),
			SEBICharges: round2(sebi),
			StampDuty:   round2(stamp),
			GST:         round2(gst),
			Total:       round2(total),
		},
		NetProfit: round2(gross - total),
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
