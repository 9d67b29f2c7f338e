package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

const adminID = 728623146

type fakeRepo struct {
	trades []*domain.TradeRecord
	events []string
}

func (r *fakeRepo) ListTrades(context.Context, int) ([]*domain.TradeRecord, error) {
	return r.trades, nil
}

func (r *fakeRepo) ListEvents(context.Context, int) ([]string, error) {
	return r.events, nil
}

// replyCapture records every sendMessage the bot issues.
type replyCapture struct {
	mu   sync.Mutex
	sent []string
}

func (c *replyCapture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	c.mu.Lock()
	c.sent = append(c.sent, r.PostForm.Get("text"))
	c.mu.Unlock()
	w.Write([]byte(`{"ok":true,"result":{}}`))
}

func (c *replyCapture) last(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

func newTestControl(t *testing.T, repo domain.TradeRepository) (*TelegramControl, *replyCapture) {
	t.Helper()
	capture := &replyCapture{}
	srv := httptest.NewServer(capture)
	t.Cleanup(srv.Close)

	ctl := NewTelegramControl("bot-token", []int64{adminID}, repo, zap.NewNop())
	ctl.baseURL = srv.URL
	return ctl, capture
}

func update(fromID int64, text string) tgUpdate {
	msg := &tgMessage{Text: text}
	msg.From.ID = fromID
	msg.Chat.ID = 42
	return tgUpdate{UpdateID: 1, Message: msg}
}

func TestTelegramControl_StartStop(t *testing.T) {
	ctl, capture := newTestControl(t, &fakeRepo{})
	require.False(t, ctl.IsRunning())

	ctl.handleUpdate(context.Background(), update(adminID, "/start"))
	assert.True(t, ctl.IsRunning())
	assert.Contains(t, capture.last(t), "started")

	ctl.handleUpdate(context.Background(), update(adminID, "/stop"))
	assert.False(t, ctl.IsRunning())
	assert.Contains(t, capture.last(t), "stopped")
}

func TestTelegramControl_UnauthorizedUserIgnored(t *testing.T) {
	ctl, capture := newTestControl(t, &fakeRepo{})

	ctl.handleUpdate(context.Background(), update(999, "/start"))
	assert.False(t, ctl.IsRunning())
	assert.Contains(t, capture.last(t), "not authorized")
}

func TestTelegramControl_Status(t *testing.T) {
	ctl, capture := newTestControl(t, &fakeRepo{})

	ctl.handleUpdate(context.Background(), update(adminID, "/status"))
	assert.Contains(t, capture.last(t), "Stopped")

	ctl.SetRunning(true)
	ctl.handleUpdate(context.Background(), update(adminID, "/status"))
	assert.Contains(t, capture.last(t), "Running")
}

func TestTelegramControl_TradesCommand(t *testing.T) {
	repo := &fakeRepo{trades: []*domain.TradeRecord{{
		Symbol:      "INFY",
		Quantity:    10,
		EntryPrice:  100,
		ExitPrice:   101.5,
		RealizedPnL: 15,
		Reason:      "trailing-stop",
		ClosedAt:    time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
	}}}
	ctl, capture := newTestControl(t, repo)

	ctl.handleUpdate(context.Background(), update(adminID, "/trades"))
	msg := capture.last(t)
	assert.Contains(t, msg, "INFY")
	assert.Contains(t, msg, "pnl=15.00")
	assert.Contains(t, msg, "trailing-stop")
}

func TestTelegramControl_LogCommandEmpty(t *testing.T) {
	ctl, capture := newTestControl(t, &fakeRepo{})

	ctl.handleUpdate(context.Background(), update(adminID, "/log"))
	assert.Contains(t, capture.last(t), "No log entries")
}

func TestTelegramControl_UnknownCommand(t *testing.T) {
	ctl, capture := newTestControl(t, &fakeRepo{})

	ctl.handleUpdate(context.Background(), update(adminID, "/selfdestruct"))
	assert.Contains(t, capture.last(t), "Unknown command")
}

func TestTelegramControl_GetUpdatesAdvancesOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"ok":true,"result":[{"update_id":7},{"update_id":9}]}`))
	}))
	t.Cleanup(srv.Close)

	ctl := NewTelegramControl("bot-token", []int64{adminID}, &fakeRepo{}, zap.NewNop())
	ctl.baseURL = srv.URL

	updates, err := ctl.getUpdates(context.Background())
	require.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, int64(10), ctl.offset)
}
