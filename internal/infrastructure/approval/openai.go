package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	defaultModel  = "gpt-4"
)

// OpenAIGate asks a chat model for a YES/NO verdict on a proposed trade.
// It is a safety gate and fails closed: any transport, parse or API error
// is a veto. A disabled gate approves everything.
type OpenAIGate struct {
	apiKey  string
	baseURL string
	model   string
	enabled bool
	client  *http.Client
	log     *zap.Logger
}

func NewOpenAIGate(apiKey string, enabled bool, log *zap.Logger) *OpenAIGate {
	return &OpenAIGate{
		apiKey:  apiKey,
		baseURL: OpenAIBaseURL,
		model:   defaultModel,
		enabled: enabled,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGate) Approve(ctx context.Context, symbol string, side domain.Side, regime domain.MarketRegime) bool {
	if !g.enabled {
		return true
	}

	prompt := fmt.Sprintf(
		"You are a trading assistant. A signal suggests placing a %s trade on %s. "+
			"Current market context: %s. Should this trade be executed now? Reply with YES or NO only.",
		side, symbol, regime)

	payload, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		g.log.Warn("approval request marshal failed, vetoing", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		g.log.Warn("approval request build failed, vetoing", zap.Error(err))
		return false
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("approval call failed, vetoing", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		g.log.Warn("approval call rejected, vetoing",
			zap.String("symbol", symbol), zap.Int("status", resp.StatusCode))
		return false
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		g.log.Warn("approval reply unparseable, vetoing", zap.String("symbol", symbol))
		return false
	}

	reply := strings.ToUpper(strings.TrimSpace(parsed.Choices[0].Message.Content))
	approved := strings.HasPrefix(reply, "YES")
	g.log.Info("approval verdict",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Bool("approved", approved),
		zap.String("reply", reply))
	return approved
}
