package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/usecase"
)

type stubControl struct{ running bool }

func (c stubControl) IsRunning() bool { return c.running }

type stubRepo struct {
	trades []*domain.TradeRecord
	events []string
}

func (r stubRepo) ListTrades(context.Context, int) ([]*domain.TradeRecord, error) {
	return r.trades, nil
}

func (r stubRepo) ListEvents(context.Context, int) ([]string, error) {
	return r.events, nil
}

type nullSink struct{}

func (nullSink) RecordEvent(string) {}
func (nullSink) RecordTrade(*domain.TradeRecord) {}

func newTestServer(t *testing.T) (*Server, *usecase.RiskLedger) {
	t.Helper()
	limits := usecase.RiskLimits{
		MaxDailyLoss:     -1000,
		MaxDailyProfit:   2000,
		StopLossPct:      0.01,
		TrailStartPct:    0.015,
		TrailDrawdownPct: 0.02,
		ReentryPct:       0.005,
	}
	ledger := usecase.NewRiskLedger(limits, nullSink{}, zap.NewNop())
	repo := stubRepo{trades: []*domain.TradeRecord{{Symbol: "INFY", RealizedPnL: 15}}}
	return NewServer(0, ledger, stubControl{running: true}, repo, zap.NewNop()), ledger
}

func TestServer_Status(t *testing.T) {
	srv, ledger := newTestServer(t)
	_, err := ledger.Open("INFY", 100, 10)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.False(t, status.GuardBreached)
	require.Len(t, status.Positions, 1)
	assert.Equal(t, "INFY", status.Positions[0].Symbol)
	assert.Equal(t, 100.0, status.Positions[0].EntryPrice)
}

func TestServer_Trades(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var trades []*domain.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "INFY", trades[0].Symbol)
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
