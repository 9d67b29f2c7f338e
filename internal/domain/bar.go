package domain

import "time"

// PriceBar is a single OHLCV candle. Bars are always handled as a
// chronologically ordered slice with no duplicate timestamps.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// MinBars is the shortest series any indicator decision is allowed to
// run on. The longest lookback is the EMA(50).
const MinBars = 50

// Closes extracts the close series from a bar slice.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
