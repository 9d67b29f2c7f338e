package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/metrics"
)

// OrchestratorConfig drives the decision loop: the symbol universe, candle
// retrieval parameters, pacing between external calls and the session
// cutoff times (wall-clock, in Timezone).
type OrchestratorConfig struct {
	Symbols      []string
	Interval     string
	LookbackDays int

	CycleInterval time.Duration
	SymbolPacing  time.Duration
	PausePoll     time.Duration

	NoNewEntriesAfter string // "15:00"
	ForcedCloseAfter  string // "15:15"
	Timezone          string // e.g. "Asia/Kolkata"
}

// TradeOrchestrator runs the per-cycle decision machine: exits first
// (hard stop, then trailing), then signal-driven entries/exits gated by
// the risk ledger and the approval gate. It is the single writer of the
// ledger.
type TradeOrchestrator struct {
	cfg        OrchestratorConfig
	market     domain.MarketData
	broker     domain.Broker
	approval   domain.ApprovalGate
	control    domain.Control
	audit      domain.AuditSink
	ledger     *RiskLedger
	signals    *SignalGenerator
	classifier *ContextClassifier
	sizer      Sizer
	log        *zap.Logger

	loc          *time.Location
	noEntriesMin int // minute of day
	forceMin     int

	curDay    string
	haltedDay string // day whose session was force-closed

	timeNow func() time.Time               // for testing
	sleep   func(ctx context.Context, d time.Duration) // for testing
}

func NewTradeOrchestrator(
	cfg OrchestratorConfig,
	market domain.MarketData,
	broker domain.Broker,
	approval domain.ApprovalGate,
	control domain.Control,
	audit domain.AuditSink,
	ledger *RiskLedger,
	signals *SignalGenerator,
	classifier *ContextClassifier,
	sizer Sizer,
	log *zap.Logger,
) (*TradeOrchestrator, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	noEntries, err := parseMinuteOfDay(cfg.NoNewEntriesAfter)
	if err != nil {
		return nil, fmt.Errorf("invalid no_new_entries time: %w", err)
	}
	force, err := parseMinuteOfDay(cfg.ForcedCloseAfter)
	if err != nil {
		return nil, fmt.Errorf("invalid forced_close time: %w", err)
	}
	if force <= noEntries {
		return nil, fmt.Errorf("forced_close %q must be after no_new_entries %q",
			cfg.ForcedCloseAfter, cfg.NoNewEntriesAfter)
	}

	o := &TradeOrchestrator{
		cfg:          cfg,
		market:       market,
		broker:       broker,
		approval:     approval,
		control:      control,
		audit:        audit,
		ledger:       ledger,
		signals:      signals,
		classifier:   classifier,
		sizer:        sizer,
		log:          log,
		loc:          loc,
		noEntriesMin: noEntries,
		forceMin:     force,
		timeNow:      time.Now,
	}
	o.sleep = func(ctx context.Context, d time.Duration) {
		if d <= 0 {
			return
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return o, nil
}

func parseMinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Run iterates decision cycles until the context is cancelled. The remote
// run-flag is read once per cycle: pausing never preempts an in-flight
// symbol.
func (o *TradeOrchestrator) Run(ctx context.Context) error {
	o.log.Info("trade loop starting", zap.Strings("symbols", o.cfg.Symbols))
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !o.control.IsRunning() {
			o.log.Info("bot is stopped, waiting to resume")
			o.sleep(ctx, o.cfg.PausePoll)
			continue
		}
		o.RunCycle(ctx)
		o.sleep(ctx, o.cfg.CycleInterval)
	}
}

// RunCycle executes one full decision cycle across the symbol universe.
func (o *TradeOrchestrator) RunCycle(ctx context.Context) {
	now := o.timeNow().In(o.loc)
	o.rolloverIfNeeded(now)
	day := now.Format("2006-01-02")

	if minuteOfDay(now) >= o.forceMin {
		o.forceCloseSession(ctx, day)
		return
	}
	if o.haltedDay == day {
		return
	}

	if o.ledger.GuardBreached() {
		o.log.Warn("daily P&L guard breached, trading paused",
			zap.Float64("day_pnl", o.ledger.DailyPnL()))
		o.audit.RecordEvent(fmt.Sprintf("daily guard breached (pnl=%.2f); pausing all symbols", o.ledger.DailyPnL()))
		return
	}

	regime := o.classifier.Classify(ctx)
	entriesAllowed := minuteOfDay(now) < o.noEntriesMin

	for i, symbol := range o.cfg.Symbols {
		if i > 0 {
			o.sleep(ctx, o.cfg.SymbolPacing)
		}
		if ctx.Err() != nil {
			return
		}
		o.processSymbol(ctx, symbol, regime, entriesAllowed)
	}
	metrics.CyclesTotal.Inc()
}

func (o *TradeOrchestrator) rolloverIfNeeded(now time.Time) {
	day := now.Format("2006-01-02")
	if o.curDay == "" {
		o.curDay = day
		return
	}
	if day != o.curDay {
		o.curDay = day
		o.ledger.ResetDay()
		o.audit.RecordEvent("new trading session " + day)
	}
}

// forceCloseSession exits every open position unconditionally and halts
// the loop for the rest of the day. Symbols whose exit order fails stay
// open and are retried next cycle; the day halts only once flat.
func (o *TradeOrchestrator) forceCloseSession(ctx context.Context, day string) {
	open := o.ledger.OpenSymbols()
	if len(open) == 0 {
		if o.haltedDay != day {
			o.haltedDay = day
			o.audit.RecordEvent("session closed for " + day)
		}
		return
	}

	for _, symbol := range open {
		ltp, err := o.market.GetLastPrice(ctx, symbol)
		if err != nil {
			pos, ok := o.ledger.Position(symbol)
			if !ok {
				continue
			}
			o.log.Warn("no quote for forced close, exiting at entry price",
				zap.String("symbol", symbol), zap.Error(err))
			ltp = pos.EntryPrice
		}
		if o.closePosition(ctx, symbol, ltp, "forced-close", domain.RegimeNeutral, true) {
			metrics.ForcedCloses.Inc()
		}
	}

	if len(o.ledger.OpenSymbols()) == 0 {
		o.haltedDay = day
		o.audit.RecordEvent("session closed for " + day)
	}
}

func (o *TradeOrchestrator) processSymbol(ctx context.Context, symbol string, regime domain.MarketRegime, entriesAllowed bool) {
	ltp, err := o.market.GetLastPrice(ctx, symbol)
	if err != nil {
		o.log.Warn("no quote, skipping symbol", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	if _, open := o.ledger.Position(symbol); open {
		// Hard stop is checked before the peak moves: it preempts the
		// trailing evaluation entirely.
		if o.ledger.HardStopTriggered(symbol, ltp) {
			o.closePosition(ctx, symbol, ltp, "stop-loss", regime, true)
			return
		}
		o.ledger.UpdatePeak(symbol, ltp)
		if o.ledger.TrailingStopTriggered(symbol, ltp) {
			o.closePosition(ctx, symbol, ltp, "trailing-stop", regime, true)
			return
		}
	}

	bars, err := o.market.GetHistoricalBars(ctx, symbol, o.cfg.Interval, o.cfg.LookbackDays)
	if err != nil {
		o.log.Warn("no candles, skipping symbol", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	sig := o.signals.Generate(symbol, bars, regime)
	metrics.SignalsTotal.WithLabelValues(string(sig.Action)).Inc()

	switch sig.Action {
	case domain.ActionBuy:
		o.tryEnter(ctx, symbol, ltp, sig, regime, entriesAllowed)
	case domain.ActionSell:
		o.trySignalExit(ctx, symbol, ltp, sig, regime)
	}
}

func (o *TradeOrchestrator) tryEnter(ctx context.Context, symbol string, ltp float64, sig domain.Signal, regime domain.MarketRegime, entriesAllowed bool) {
	if _, open := o.ledger.Position(symbol); open {
		// Already holding: BUY signals are ignored, the symbol was
		// evaluated purely for exit conditions above.
		return
	}
	if !entriesAllowed {
		o.log.Info("entry window closed, suppressing BUY", zap.String("symbol", symbol))
		return
	}
	if !o.ledger.CanOpen(symbol) {
		metrics.OrdersSuppressed.Inc()
		return
	}
	if o.ledger.ReentryBlocked(symbol, ltp) {
		metrics.OrdersSuppressed.Inc()
		o.log.Info("re-entry blocked near prior exit peak",
			zap.String("symbol", symbol), zap.Float64("ltp", ltp))
		return
	}

	if !o.approval.Approve(ctx, symbol, domain.SideBuy, regime) {
		metrics.OrdersSuppressed.Inc()
		o.audit.RecordEvent(fmt.Sprintf("%s: BUY vetoed by approval gate (regime=%s)", symbol, regime))
		return
	}

	balance, err := o.broker.GetAvailableBalance(ctx)
	if err != nil {
		o.log.Warn("balance query failed, assuming zero", zap.Error(err))
		balance = 0
	}
	qty := o.sizer.Quantity(balance, ltp)
	if qty < 1 {
		metrics.OrdersSuppressed.Inc()
		o.log.Info("insufficient balance for entry",
			zap.String("symbol", symbol), zap.Float64("balance", balance), zap.Float64("ltp", ltp))
		return
	}

	orderID, err := o.broker.PlaceOrder(ctx, symbol, domain.SideBuy, qty)
	if err != nil {
		metrics.OrdersFailed.Inc()
		o.log.Error("BUY order failed, no position opened",
			zap.String("symbol", symbol), zap.Error(err))
		return
	}
	metrics.OrdersPlaced.Inc()

	if _, err := o.ledger.Open(symbol, ltp, qty); err != nil {
		o.log.Error("ledger open rejected after fill", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	o.audit.RecordEvent(fmt.Sprintf("BUY %s qty=%d entry=%.2f order=%s regime=%s score=%d (%s)",
		symbol, qty, ltp, orderID, regime, sig.Score, sig.Rationale))
}

func (o *TradeOrchestrator) trySignalExit(ctx context.Context, symbol string, ltp float64, sig domain.Signal, regime domain.MarketRegime) {
	if _, open := o.ledger.Position(symbol); !open {
		return
	}
	if !o.approval.Approve(ctx, symbol, domain.SideSell, regime) {
		o.audit.RecordEvent(fmt.Sprintf("%s: SELL vetoed by approval gate (regime=%s)", symbol, regime))
		return
	}
	o.closePosition(ctx, symbol, ltp, "signal: "+sig.Rationale, regime, true)
}

// closePosition submits the exit order first; the ledger is only mutated
// once the broker accepted the order. Returns true when the position was
// closed.
func (o *TradeOrchestrator) closePosition(ctx context.Context, symbol string, ltp float64, reason string, regime domain.MarketRegime, approved bool) bool {
	pos, open := o.ledger.Position(symbol)
	if !open {
		return false
	}

	if _, err := o.broker.PlaceOrder(ctx, symbol, domain.SideSell, pos.Quantity); err != nil {
		metrics.OrdersFailed.Inc()
		o.log.Error("exit order failed, position unchanged",
			zap.String("symbol", symbol), zap.String("reason", reason), zap.Error(err))
		return false
	}
	metrics.OrdersPlaced.Inc()

	pnl, err := o.ledger.Close(symbol, ltp, reason, regime, approved)
	if err != nil {
		o.log.Error("ledger close rejected", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	o.audit.RecordEvent(fmt.Sprintf("SELL %s qty=%d exit=%.2f pnl=%.2f reason=%s regime=%s",
		symbol, pos.Quantity, ltp, pnl, reason, regime))
	return true
}
