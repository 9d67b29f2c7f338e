package domain

import "context"

// MarketData provides historical candles and last-traded prices.
// Implementations fail open: an empty slice or an error is treated by the
// core as "insufficient data", never as a reason to abort the loop.
type MarketData interface {
	GetHistoricalBars(ctx context.Context, symbol, interval string, lookbackDays int) ([]PriceBar, error)
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
}

// Broker places orders and reports the available balance.
type Broker interface {
	// PlaceOrder submits a market order and returns the broker order ID.
	// On error the caller must leave its own state unchanged.
	PlaceOrder(ctx context.Context, symbol string, side Side, qty int) (string, error)
	GetAvailableBalance(ctx context.Context) (float64, error)
}

// ApprovalGate is the optional discretionary veto consulted after a signal
// and before order placement. It is a safety gate: implementations must
// return false on any internal failure.
type ApprovalGate interface {
	Approve(ctx context.Context, symbol string, side Side, regime MarketRegime) bool
}

// Control exposes the remote run-flag. Read once per cycle; pausing takes
// effect at the top of the next cycle, never mid-symbol.
type Control interface {
	IsRunning() bool
}

// AuditSink is the append-only audit trail. Writes are best-effort and
// never fail the caller.
type AuditSink interface {
	RecordEvent(text string)
	RecordTrade(rec *TradeRecord)
}

// TradeRepository reads back the persisted trade history for reporting.
type TradeRepository interface {
	ListTrades(ctx context.Context, limit int) ([]*TradeRecord, error)
	ListEvents(ctx context.Context, limit int) ([]string, error)
}
