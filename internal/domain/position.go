package domain

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position is an open long position. Short entries are not modeled;
// SELL only ever closes an existing position.
// Positions are owned by the RiskLedger and mutated only through it.
type Position struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	Quantity   int
	EntryTime  time.Time

	// PeakPrice is the highest price seen while the position is open.
	// Monotonic non-decreasing; drives the trailing stop.
	PeakPrice float64
}

// TradeRecord is an immutable audit entry appended on every closed trade.
type TradeRecord struct {
	ID          int64
	Symbol      string
	Quantity    int
	Side        Side
	EntryPrice  float64
	ExitPrice   float64
	RealizedPnL float64
	Approved    bool
	Regime      MarketRegime
	Reason      string
	ClosedAt    time.Time
}
