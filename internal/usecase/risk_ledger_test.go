package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

// recordingSink captures audit writes for assertions.
type recordingSink struct {
	events []string
	trades []*domain.TradeRecord
}

func (s *recordingSink) RecordEvent(text string) { s.events = append(s.events, text) }
func (s *recordingSink) RecordTrade(rec *domain.TradeRecord) { s.trades = append(s.trades, rec) }

func testLimits() RiskLimits {
	return RiskLimits{
		MaxDailyLoss:     -1000,
		MaxDailyProfit:   2000,
		StopLossPct:      0.01,
		TrailStartPct:    0.015,
		TrailDrawdownPct: 0.02,
		ReentryPct:       0.005,
	}
}

func newTestLedger(t *testing.T) (*RiskLedger, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	ledger := NewRiskLedger(testLimits(), sink, zap.NewNop())
	ledger.timeNow = func() time.Time {
		return time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	}
	return ledger, sink
}

func TestRiskLedger_DoubleOpenRejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("INFY", 1500, 5)
	require.NoError(t, err)

	_, err = ledger.Open("INFY", 1510, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestRiskLedger_CloseWithoutPositionRejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Close("TCS", 3500, "signal", domain.RegimeNeutral, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestRiskLedger_PeakIsMonotonic(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("INFY", 100, 10)
	require.NoError(t, err)

	for _, ltp := range []float64{100, 105, 103, 104.9, 101} {
		ledger.UpdatePeak("INFY", ltp)
	}

	pos, ok := ledger.Position("INFY")
	require.True(t, ok)
	assert.Equal(t, 105.0, pos.PeakPrice)
}

func TestRiskLedger_UpdatePeakNoopWhenFlat(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ledger.UpdatePeak("INFY", 200) // must not panic or create state
	_, ok := ledger.Position("INFY")
	assert.False(t, ok)
}

func TestRiskLedger_CloseRealizesPnLAndRecordsTrade(t *testing.T) {
	ledger, sink := newTestLedger(t)

	_, err := ledger.Open("INFY", 100, 10)
	require.NoError(t, err)
	ledger.UpdatePeak("INFY", 103)

	pnl, err := ledger.Close("INFY", 100.9, "trailing-stop", domain.RegimeBullish, true)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, pnl, 1e-9)
	assert.InDelta(t, 9.0, ledger.DailyPnL(), 1e-9)

	require.Len(t, sink.trades, 1)
	rec := sink.trades[0]
	assert.Equal(t, "INFY", rec.Symbol)
	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, 100.0, rec.EntryPrice)
	assert.Equal(t, 100.9, rec.ExitPrice)
	assert.Equal(t, "trailing-stop", rec.Reason)
	assert.Equal(t, domain.RegimeBullish, rec.Regime)
	assert.True(t, rec.Approved)

	_, ok := ledger.Position("INFY")
	assert.False(t, ok)
}

func TestRiskLedger_DailyGuardStrictBounds(t *testing.T) {
	ledger, _ := newTestLedger(t)

	// Accumulate +1999: strictly inside the band, guard passes.
	_, err := ledger.Open("A", 1, 1)
	require.NoError(t, err)
	_, err = ledger.Close("A", 2000, "signal", domain.RegimeNeutral, true)
	require.NoError(t, err)
	assert.InDelta(t, 1999.0, ledger.DailyPnL(), 1e-9)
	assert.False(t, ledger.GuardBreached())
	assert.True(t, ledger.CanOpen("B"))

	// +50 more overshoots to 2049: at/beyond the cap, every symbol blocked.
	_, err = ledger.Open("B", 1, 1)
	require.NoError(t, err)
	_, err = ledger.Close("B", 51, "signal", domain.RegimeNeutral, true)
	require.NoError(t, err)
	assert.InDelta(t, 2049.0, ledger.DailyPnL(), 1e-9)
	assert.True(t, ledger.GuardBreached())
	assert.False(t, ledger.CanOpen("C"))
	assert.False(t, ledger.CanOpen("D"))
}

func TestRiskLedger_DailyGuardLossBoundInclusive(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("A", 1001, 1)
	require.NoError(t, err)
	_, err = ledger.Close("A", 1, "stop-loss", domain.RegimeNeutral, true)
	require.NoError(t, err)

	assert.InDelta(t, -1000.0, ledger.DailyPnL(), 1e-9)
	assert.True(t, ledger.GuardBreached())
	assert.False(t, ledger.CanOpen("B"))
}

func TestRiskLedger_TrailingStopMustArmFirst(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("INFY", 100, 10)
	require.NoError(t, err)

	// Peak at 101 is below the 1.5% arming threshold; even a fall through
	// the entry must not fire the trailing stop.
	ledger.UpdatePeak("INFY", 101)
	assert.False(t, ledger.TrailingStopTriggered("INFY", 99))
	assert.False(t, ledger.TrailingStopTriggered("INFY", 95))
}

func TestRiskLedger_TrailingStopScenarios(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("INFY", 100, 10)
	require.NoError(t, err)

	// 100 -> 103: armed (103 >= 101.5). Retrace to 101 stays above
	// 103*0.98 = 100.94, no trigger.
	ledger.UpdatePeak("INFY", 103)
	assert.False(t, ledger.TrailingStopTriggered("INFY", 101))

	// 100.9 <= 100.94 fires.
	assert.True(t, ledger.TrailingStopTriggered("INFY", 100.9))

	pnl, err := ledger.Close("INFY", 100.9, "trailing-stop", domain.RegimeNeutral, true)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, pnl, 1e-9)
}

func TestRiskLedger_HardStop(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("INFY", 100, 10)
	require.NoError(t, err)

	assert.False(t, ledger.HardStopTriggered("INFY", 99.01))
	assert.True(t, ledger.HardStopTriggered("INFY", 99.0))
	assert.True(t, ledger.HardStopTriggered("INFY", 95))
	assert.False(t, ledger.HardStopTriggered("TCS", 1)) // flat symbol
}

func TestRiskLedger_ReentryGuard(t *testing.T) {
	ledger, _ := newTestLedger(t)

	// No prior exit: never blocked.
	assert.False(t, ledger.ReentryBlocked("WIPRO", 100))

	_, err := ledger.Open("WIPRO", 100, 1)
	require.NoError(t, err)
	ledger.UpdatePeak("WIPRO", 110)
	_, err = ledger.Close("WIPRO", 108, "trailing-stop", domain.RegimeNeutral, true)
	require.NoError(t, err)

	// Blocked below 110*1.005 = 110.55, allowed at/above.
	assert.True(t, ledger.ReentryBlocked("WIPRO", 110.4))
	assert.False(t, ledger.ReentryBlocked("WIPRO", 110.6))
}

func TestRiskLedger_ResetDayClearsState(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Open("A", 1, 1)
	require.NoError(t, err)
	_, err = ledger.Close("A", 3000, "signal", domain.RegimeNeutral, true)
	require.NoError(t, err)
	require.True(t, ledger.GuardBreached())

	_, err = ledger.Open("B", 100, 1)
	require.NoError(t, err)

	ledger.ResetDay()

	assert.False(t, ledger.GuardBreached())
	assert.Equal(t, 0.0, ledger.DailyPnL())
	assert.Empty(t, ledger.OpenSymbols())
	assert.False(t, ledger.ReentryBlocked("A", 1))
	assert.True(t, ledger.CanOpen("B"))
}

func TestRiskLimits_Validate(t *testing.T) {
	assert.NoError(t, testLimits().Validate())

	bad := testLimits()
	bad.MaxDailyLoss = 500
	assert.Error(t, bad.Validate())

	bad = testLimits()
	bad.MaxDailyProfit = 0
	assert.Error(t, bad.Validate())

	bad = testLimits()
	bad.StopLossPct = 1.5
	assert.Error(t, bad.Validate())
}
