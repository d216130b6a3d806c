package repository

import "time"

// NSE trading days roll over at midnight IST.
var marketTZ = loadMarketTZ()

func loadMarketTZ() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// TradingDay returns the trading day (YYYY-MM-DD) for a given timestamp.
func TradingDay(ts time.Time) string {
	return ts.In(marketTZ).Format("2006-01-02")
}

// TradingDayNow returns the trading day for the current moment.
func TradingDayNow() string {
	return TradingDay(time.Now())
}
