package broker

import (
	"encoding/binary"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const KiteWSURL = "wss://ws.kite.trade"

// KiteTicker streams last-traded prices over the Kite websocket in LTP
// mode. The feed is optional: the orchestrator always falls back to the
// REST quote, the ticker only keeps the control surface responsive.
//
// Kite frames are binary: an int16 packet count, then per packet an int16
// length followed by the payload. In LTP mode the payload is the int32
// instrument token and the int32 price in paise.
type KiteTicker struct {
	wsURL  string
	apiKey string
	token  string
	log    *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	callbacks []func(instrumentToken int64, ltp float64)
}

func NewKiteTicker(apiKey, accessToken string, log *zap.Logger) *KiteTicker {
	return &KiteTicker{
		wsURL:  KiteWSURL,
		apiKey: apiKey,
		token:  accessToken,
		log:    log,
	}
}

func (t *KiteTicker) OnPriceUpdate(callback func(instrumentToken int64, ltp float64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

// Connect dials the ticker and subscribes the given instrument tokens in
// LTP mode. Safe to call again after a read failure.
func (t *KiteTicker) Connect(tokens []int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.subscribe(tokens)
	}

	q := url.Values{}
	q.Set("api_key", t.apiKey)
	q.Set("access_token", t.token)
	c, _, err := websocket.DefaultDialer.Dial(t.wsURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	t.conn = c

	go t.readLoop()

	return t.subscribe(tokens)
}

func (t *KiteTicker) subscribe(tokens []int64) error {
	if len(tokens) == 0 {
		return nil
	}
	sub := map[string]interface{}{"a": "subscribe", "v": tokens}
	if err := t.conn.WriteJSON(sub); err != nil {
		return err
	}
	mode := map[string]interface{}{"a": "mode", "v": []interface{}{"ltp", tokens}}
	return t.conn.WriteJSON(mode)
}

func (t *KiteTicker) readLoop() {
	defer func() {
		t.mu.Lock()
		if t.conn != nil {
			t.conn.Close()
			t.conn = nil
		}
		t.mu.Unlock()
	}()

	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn == nil {
			return
		}

		msgType, message, err := conn.ReadMessage()
		if err != nil {
			t.log.Warn("ticker read error", zap.Error(err))
			return
		}
		if msgType != websocket.BinaryMessage || len(message) < 2 {
			// Text frames carry postbacks and errors; nothing to do in
			// LTP mode.
			continue
		}

		t.decodeFrame(message)
	}
}

func (t *KiteTicker) decodeFrame(frame []byte) {
	count := int(binary.BigEndian.Uint16(frame[0:2]))
	offset := 2

	for i := 0; i < count; i++ {
		if offset+2 > len(frame) {
			return
		}
		length := int(binary.BigEndian.Uint16(frame[offset : offset+2]))
		offset += 2
		if offset+length > len(frame) || length < 8 {
			return
		}

		packet := frame[offset : offset+length]
		offset += length

		token := int64(binary.BigEndian.Uint32(packet[0:4]))
		// Equity prices arrive in paise.
		ltp := float64(int32(binary.BigEndian.Uint32(packet[4:8]))) / 100

		t.mu.Lock()
		callbacks := append([]func(int64, float64){}, t.callbacks...)
		t.mu.Unlock()
		for _, cb := range callbacks {
			cb(token, ltp)
		}
	}
}

func (t *KiteTicker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
