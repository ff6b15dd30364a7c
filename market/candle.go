package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the candle has a timestamp and a coherent range.
func (c Candle) Valid() bool {
	if c.Time.IsZero() {
		return false
	}
	return c.Low <= c.High
}
