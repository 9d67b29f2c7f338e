package usecase

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/metrics"
)

// RiskLimits is the risk configuration surface consumed by the ledger.
// MaxDailyLoss is negative; the daily guard is the strict band
// MaxDailyLoss < dailyPnL < MaxDailyProfit.
type RiskLimits struct {
	MaxDailyLoss     float64 `yaml:"max_daily_loss"`
	MaxDailyProfit   float64 `yaml:"max_daily_profit"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TrailStartPct    float64 `yaml:"trail_start_pct"`
	TrailDrawdownPct float64 `yaml:"trail_drawdown_pct"`
	ReentryPct       float64 `yaml:"reentry_pct"`
}

func (l RiskLimits) Validate() error {
	if l.MaxDailyLoss >= 0 {
		return fmt.Errorf("max_daily_loss must be negative, got %v", l.MaxDailyLoss)
	}
	if l.MaxDailyProfit <= 0 {
		return fmt.Errorf("max_daily_profit must be positive, got %v", l.MaxDailyProfit)
	}
	if l.StopLossPct <= 0 || l.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct out of range: %v", l.StopLossPct)
	}
	if l.TrailStartPct <= 0 || l.TrailDrawdownPct <= 0 {
		return fmt.Errorf("trailing thresholds must be positive")
	}
	if l.ReentryPct < 0 {
		return fmt.Errorf("reentry_pct must not be negative: %v", l.ReentryPct)
	}
	return nil
}

// RiskLedger owns all live position and daily P&L state. Per symbol the
// state machine is Flat -> Open -> Flat, cycling for the life of the
// session. Constructed per session and reset at the day boundary; the
// orchestrator is its only writer.
type RiskLedger struct {
	limits RiskLimits
	sink   domain.AuditSink
	log    *zap.Logger

	mu        sync.RWMutex
	positions map[string]*domain.Position
	// exitPeaks keeps the peak of the last closed position per symbol for
	// the anti-whipsaw re-entry guard.
	exitPeaks map[string]float64
	dailyPnL  float64

	timeNow func() time.Time // for testing
}

func NewRiskLedger(limits RiskLimits, sink domain.AuditSink, log *zap.Logger) *RiskLedger {
	return &RiskLedger{
		limits:    limits,
		sink:      sink,
		log:       log,
		positions: make(map[string]*domain.Position),
		exitPeaks: make(map[string]float64),
		timeNow:   time.Now,
	}
}

// GuardBreached reports whether the daily P&L band is exhausted. At or
// beyond either bound all trading pauses until the next session reset.
func (r *RiskLedger) GuardBreached() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.guardBreachedLocked()
}

func (r *RiskLedger) guardBreachedLocked() bool {
	return r.dailyPnL <= r.limits.MaxDailyLoss || r.dailyPnL >= r.limits.MaxDailyProfit
}

// CanOpen is true iff the symbol is flat and the daily guard passes.
func (r *RiskLedger) CanOpen(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, open := r.positions[symbol]; open {
		return false
	}
	return !r.guardBreachedLocked()
}

// Open creates a position with PeakPrice seeded at the entry price.
func (r *RiskLedger) Open(symbol string, price float64, qty int) (*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, open := r.positions[symbol]; open {
		return nil, fmt.Errorf("open %s: position already exists: %w", symbol, domain.ErrInvalidState)
	}

	pos := &domain.Position{
		Symbol:     symbol,
		Side:       domain.SideBuy,
		EntryPrice: price,
		Quantity:   qty,
		EntryTime:  r.timeNow(),
		PeakPrice:  price,
	}
	r.positions[symbol] = pos
	metrics.OpenPositions.Set(float64(len(r.positions)))

	r.log.Info("position opened",
		zap.String("symbol", symbol),
		zap.Float64("entry", price),
		zap.Int("qty", qty))
	return pos, nil
}

// UpdatePeak raises the trailing peak to ltp when it is a new high.
// No-op for flat symbols. The peak never decreases while the position
// is open.
func (r *RiskLedger) UpdatePeak(symbol string, ltp float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, open := r.positions[symbol]
	if !open {
		return
	}
	if ltp > pos.PeakPrice {
		pos.PeakPrice = ltp
	}
}

// Close realizes P&L at exitPrice, accumulates it into the daily total,
// appends a TradeRecord to the audit sink and removes the position.
func (r *RiskLedger) Close(symbol string, exitPrice float64, reason string, regime domain.MarketRegime, approved bool) (float64, error) {
	r.mu.Lock()
	pos, open := r.positions[symbol]
	if !open {
		r.mu.Unlock()
		return 0, fmt.Errorf("close %s: no open position: %w", symbol, domain.ErrInvalidState)
	}

	pnl := (exitPrice - pos.EntryPrice) * float64(pos.Quantity)
	r.dailyPnL += pnl
	r.exitPeaks[symbol] = pos.PeakPrice
	delete(r.positions, symbol)

	rec := &domain.TradeRecord{
		Symbol:      symbol,
		Quantity:    pos.Quantity,
		Side:        domain.SideBuy,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		RealizedPnL: pnl,
		Approved:    approved,
		Regime:      regime,
		Reason:      reason,
		ClosedAt:    r.timeNow(),
	}
	dayPnL := r.dailyPnL
	openCount := len(r.positions)
	r.mu.Unlock()

	metrics.DailyPnL.Set(dayPnL)
	metrics.OpenPositions.Set(float64(openCount))
	r.sink.RecordTrade(rec)

	r.log.Info("position closed",
		zap.String("symbol", symbol),
		zap.String("reason", reason),
		zap.Float64("exit", exitPrice),
		zap.Float64("pnl", pnl),
		zap.Float64("day_pnl", dayPnL))
	return pnl, nil
}

// TrailingStopTriggered implements the two-phase trailing stop: the stop
// arms only once the peak has risen TrailStartPct above entry, and fires
// when ltp retraces TrailDrawdownPct from that peak. It never fires on a
// position that has not been in profit by at least TrailStartPct.
func (r *RiskLedger) TrailingStopTriggered(symbol string, ltp float64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, open := r.positions[symbol]
	if !open {
		return false
	}

	armed := pos.PeakPrice >= pos.EntryPrice*(1+r.limits.TrailStartPct)
	if !armed {
		return false
	}
	return ltp <= pos.PeakPrice*(1-r.limits.TrailDrawdownPct)
}

// HardStopTriggered is the unconditional stop-loss: ltp at or below
// entry*(1-StopLossPct). Always active while the position is open and
// independent of the trailing logic.
func (r *RiskLedger) HardStopTriggered(symbol string, ltp float64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, open := r.positions[symbol]
	if !open {
		return false
	}
	return ltp <= pos.EntryPrice*(1-r.limits.StopLossPct)
}

// ReentryBlocked guards against re-buying at the level that triggered the
// previous exit: blocked while ltp is below lastExitPeak*(1+ReentryPct).
// Symbols with no prior exit are never blocked.
func (r *RiskLedger) ReentryBlocked(symbol string, ltp float64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peak, ok := r.exitPeaks[symbol]
	if !ok {
		return false
	}
	return ltp < peak*(1+r.limits.ReentryPct)
}

// Position returns a copy of the open position for symbol, if any.
func (r *RiskLedger) Position(symbol string) (domain.Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, open := r.positions[symbol]
	if !open {
		return domain.Position{}, false
	}
	return *pos, true
}

// OpenSymbols lists symbols that currently hold a position.
func (r *RiskLedger) OpenSymbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	symbols := make([]string, 0, len(r.positions))
	for s := range r.positions {
		symbols = append(symbols, s)
	}
	return symbols
}

// DailyPnL returns the realized P&L accumulated this session.
func (r *RiskLedger) DailyPnL() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dailyPnL
}

// ResetDay clears all session state at the trading-day boundary.
func (r *RiskLedger) ResetDay() {
	r.mu.Lock()
	r.positions = make(map[string]*domain.Position)
	r.exitPeaks = make(map[string]float64)
	r.dailyPnL = 0
	r.mu.Unlock()

	metrics.DailyPnL.Set(0)
	metrics.OpenPositions.Set(0)
	r.log.Info("daily ledger reset")
}
