package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramControl is the remote control surface: a long-polling Telegram
// bot exposing /start, /stop, /status, /log and /trades to an allowlist of
// admin user IDs. It owns the run-flag; the orchestrator only reads it.
// The flag is an atomic bool, so no further locking is shared with the
// trading loop.
type TelegramControl struct {
	token    string
	baseURL  string
	adminIDs map[int64]bool
	repo     domain.TradeRepository
	client   *http.Client
	log      *zap.Logger

	running atomic.Bool
	offset  int64
}

func NewTelegramControl(token string, adminIDs []int64, repo domain.TradeRepository, log *zap.Logger) *TelegramControl {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &TelegramControl{
		token:    token,
		baseURL:  telegramBaseURL,
		adminIDs: admins,
		repo:     repo,
		client:   &http.Client{Timeout: 40 * time.Second},
		log:      log,
	}
}

// IsRunning implements domain.Control.
func (t *TelegramControl) IsRunning() bool {
	return t.running.Load()
}

// SetRunning allows the process bootstrap to choose the initial state.
func (t *TelegramControl) SetRunning(v bool) {
	t.running.Store(v)
}

type tgMessage struct {
	Text string `json:"text"`
	From struct {
		ID int64 `json:"id"`
	} `json:"from"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type tgUpdate struct {
	UpdateID int64      `json:"update_id"`
	Message  *tgMessage `json:"message"`
}

type tgUpdatesResponse struct {
	OK     bool       `json:"ok"`
	Result []tgUpdate `json:"result"`
}

// Poll long-polls getUpdates until the context is cancelled. Errors back
// off and retry; the control surface must never take the trading loop
// down with it.
func (t *TelegramControl) Poll(ctx context.Context) {
	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Warn("telegram poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		for _, u := range updates {
			t.handleUpdate(ctx, u)
		}
	}
}

func (t *TelegramControl) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	q := url.Values{}
	q.Set("timeout", "30")
	q.Set("offset", fmt.Sprintf("%d", t.offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/bot%s/getUpdates?%s", t.baseURL, t.token, q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed tgUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram getUpdates not ok")
	}

	for _, u := range parsed.Result {
		if u.UpdateID >= t.offset {
			t.offset = u.UpdateID + 1
		}
	}
	return parsed.Result, nil
}

func (t *TelegramControl) handleUpdate(ctx context.Context, u tgUpdate) {
	if u.Message == nil {
		return
	}
	chatID := u.Message.Chat.ID
	cmd := strings.Fields(strings.TrimSpace(u.Message.Text))
	if len(cmd) == 0 {
		return
	}

	if !t.adminIDs[u.Message.From.ID] {
		t.reply(ctx, chatID, "You are not authorized to use this command.")
		return
	}

	switch cmd[0] {
	case "/start":
		t.running.Store(true)
		t.reply(ctx, chatID, "Trading bot started.")
	case "/stop":
		t.running.Store(false)
		t.reply(ctx, chatID, "Trading bot stopped.")
	case "/status":
		if t.running.Load() {
			t.reply(ctx, chatID, "Bot status: Running")
		} else {
			t.reply(ctx, chatID, "Bot status: Stopped")
		}
	case "/log":
		t.replyEvents(ctx, chatID)
	case "/trades":
		t.replyTrades(ctx, chatID)
	default:
		t.reply(ctx, chatID, "Unknown command.\n\nAvailable:\n/start\n/stop\n/status\n/log\n/trades")
	}
}

func (t *TelegramControl) replyEvents(ctx context.Context, chatID int64) {
	events, err := t.repo.ListEvents(ctx, 20)
	if err != nil || len(events) == 0 {
		t.reply(ctx, chatID, "No log entries found.")
		return
	}
	text := "Last events:\n\n" + strings.Join(events, "\n")
	// Telegram caps messages at 4096 characters.
	if len(text) > 4000 {
		text = text[len(text)-4000:]
	}
	t.reply(ctx, chatID, text)
}

func (t *TelegramControl) replyTrades(ctx context.Context, chatID int64) {
	trades, err := t.repo.ListTrades(ctx, 10)
	if err != nil || len(trades) == 0 {
		t.reply(ctx, chatID, "No trades recorded yet.")
		return
	}
	var b strings.Builder
	b.WriteString("Last trades:\n\n")
	for _, tr := range trades {
		fmt.Fprintf(&b, "%s %s x%d %.2f -> %.2f pnl=%.2f (%s)\n",
			tr.ClosedAt.Format("01-02 15:04"), tr.Symbol, tr.Quantity,
			tr.EntryPrice, tr.ExitPrice, tr.RealizedPnL, tr.Reason)
	}
	t.reply(ctx, chatID, b.String())
}

func (t *TelegramControl) reply(ctx context.Context, chatID int64, text string) {
	form := url.Values{}
	form.Set("chat_id", fmt.Sprintf("%d", chatID))
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token),
		strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Warn("telegram reply failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}
