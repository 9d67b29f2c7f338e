package broker

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"encoding/json"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

const (
	KiteBaseURL     = "https://api.kite.trade"
	kiteTimeLayout  = "2006-01-02T15:04:05-0700"
	exchangeNSE     = "NSE"
	productIntraday = "MIS"
)

// Index instrument tokens are fixed on Zerodha and not present in the NSE
// instrument dump.
var indexTokens = map[string]int64{
	"NIFTY 50":      256265,
	"BANKNIFTY":     260105,
	"NIFTY NEXT 50": 540249,
}

// KiteAdapter talks to the Zerodha Kite Connect REST API. It implements
// domain.MarketData and domain.Broker. All calls retry once on transient
// failure; callers treat any remaining error as "skip this cycle".
type KiteAdapter struct {
	apiKey      string
	accessToken string
	baseURL     string
	client      *http.Client
	log         *zap.Logger

	mu         sync.Mutex
	tokenCache map[string]int64

	maxRetries int
	backoff    time.Duration
}

func NewKiteAdapter(apiKey, accessToken, baseURL string, log *zap.Logger) *KiteAdapter {
	if baseURL == "" {
		baseURL = KiteBaseURL
	}
	return &KiteAdapter{
		apiKey:      apiKey,
		accessToken: accessToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
		tokenCache:  make(map[string]int64),
		maxRetries:  2,
		backoff:     2 * time.Second,
	}
}

func (k *KiteAdapter) SetAccessToken(token string) {
	k.mu.Lock()
	k.accessToken = token
	k.mu.Unlock()
}

func (k *KiteAdapter) authHeader() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return "token " + k.apiKey + ":" + k.accessToken
}

// AccessToken returns the current session token (used by the websocket
// ticker).
func (k *KiteAdapter) AccessToken() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.accessToken
}

func (k *KiteAdapter) APIKey() string { return k.apiKey }

func (k *KiteAdapter) sendRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= k.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(k.backoff):
			}
		}

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, k.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Kite-Version", "3")
		req.Header.Set("Authorization", k.authHeader())
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := k.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("kite API %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("kite API %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}
	return nil, lastErr
}

// instrumentToken resolves a trading symbol to its instrument token, using
// the hardcoded index tokens first, then the cached NSE instrument dump.
func (k *KiteAdapter) instrumentToken(ctx context.Context, symbol string) (int64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if token, ok := indexTokens[symbol]; ok {
		return token, nil
	}

	k.mu.Lock()
	token, ok := k.tokenCache[symbol]
	k.mu.Unlock()
	if ok {
		return token, nil
	}

	body, err := k.sendRequest(ctx, http.MethodGet, "/instruments/"+exchangeNSE, nil)
	if err != nil {
		return 0, fmt.Errorf("instrument dump: %w", err)
	}

	// The dump is CSV: instrument_token, exchange_token, tradingsymbol, ...
	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil { // header
		return 0, err
	}
	k.mu.Lock()
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if len(rec) < 3 {
			continue
		}
		t, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			continue
		}
		k.tokenCache[strings.ToUpper(rec[2])] = t
	}
	token, ok = k.tokenCache[symbol]
	k.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("%s: unknown instrument: %w", symbol, domain.ErrDataUnavailable)
	}
	return token, nil
}

// ResolveToken exposes instrument-token lookup for the websocket ticker.
func (k *KiteAdapter) ResolveToken(ctx context.Context, symbol string) (int64, error) {
	return k.instrumentToken(ctx, symbol)
}

// --- domain.MarketData ---

func (k *KiteAdapter) GetHistoricalBars(ctx context.Context, symbol, interval string, lookbackDays int) ([]domain.PriceBar, error) {
	token, err := k.instrumentToken(ctx, symbol)
	if err != nil {
		return nil, err
	}

	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)
	path := fmt.Sprintf("/instruments/historical/%d/%s?from=%s&to=%s",
		token, interval,
		url.QueryEscape(from.Format("2006-01-02 15:04:05")),
		url.QueryEscape(to.Format("2006-01-02 15:04:05")))

	body, err := k.sendRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status string `json:"status"`
		Data   struct {
			Candles [][]interface{} `json:"candles"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	bars := make([]domain.PriceBar, 0, len(result.Data.Candles))
	for _, c := range result.Data.Candles {
		if len(c) < 6 {
			continue
		}
		ts, ok := c[0].(string)
		if !ok {
			continue
		}
		t, err := time.Parse(kiteTimeLayout, ts)
		if err != nil {
			continue
		}
		bars = append(bars, domain.PriceBar{
			Time:   t,
			Open:   asFloat(c[1]),
			High:   asFloat(c[2]),
			Low:    asFloat(c[3]),
			Close:  asFloat(c[4]),
			Volume: asFloat(c[5]),
		})
	}
	return bars, nil
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func (k *KiteAdapter) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	full := exchangeNSE + ":" + strings.ToUpper(strings.TrimPrefix(symbol, exchangeNSE+":"))
	body, err := k.sendRequest(ctx, http.MethodGet, "/quote/ltp?i="+url.QueryEscape(full), nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Data map[string]struct {
			LastPrice float64 `json:"last_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, err
	}
	quote, ok := result.Data[full]
	if !ok {
		return 0, fmt.Errorf("%s: no quote: %w", symbol, domain.ErrDataUnavailable)
	}
	return quote.LastPrice, nil
}

// --- domain.Broker ---

func (k *KiteAdapter) PlaceOrder(ctx context.Context, symbol string, side domain.Side, qty int) (string, error) {
	form := url.Values{}
	form.Set("exchange", exchangeNSE)
	form.Set("tradingsymbol", strings.ToUpper(symbol))
	form.Set("transaction_type", string(side))
	form.Set("quantity", strconv.Itoa(qty))
	form.Set("product", productIntraday)
	form.Set("order_type", "MARKET")
	form.Set("validity", "DAY")

	body, err := k.sendRequest(ctx, http.MethodPost, "/orders/regular", form)
	if err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Data.OrderID == "" {
		return "", fmt.Errorf("order rejected: %s", string(body))
	}

	k.log.Info("order placed",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int("qty", qty),
		zap.String("order_id", result.Data.OrderID))
	return result.Data.OrderID, nil
}

func (k *KiteAdapter) GetAvailableBalance(ctx context.Context) (float64, error) {
	body, err := k.sendRequest(ctx, http.MethodGet, "/user/margins/equity", nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Data struct {
			Available struct {
				Cash float64 `json:"cash"`
			} `json:"available"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, err
	}
	return result.Data.Available.Cash, nil
}
