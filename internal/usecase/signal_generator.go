package usecase

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/indicator"
)

// SignalConfig holds the indicator thresholds consulted by the generator.
type SignalConfig struct {
	EMAFast      int     `yaml:"ema_fast"`
	EMASlow      int     `yaml:"ema_slow"`
	RSIPeriod    int     `yaml:"rsi_period"`
	RSIThreshold float64 `yaml:"rsi_threshold"`
	MACDFast     int     `yaml:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow"`
	MACDSignal   int     `yaml:"macd_signal"`
}

func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		EMAFast:      20,
		EMASlow:      50,
		RSIPeriod:    14,
		RSIThreshold: 50,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
	}
}

// regimeBias shifts the RSI threshold by the market context: a bearish
// regime loosens it, a bullish one tightens it.
func regimeBias(regime domain.MarketRegime) float64 {
	switch regime {
	case domain.RegimeBearish:
		return -5
	case domain.RegimeBullish:
		return 5
	default:
		return 0
	}
}

// SignalGenerator turns a symbol's price series plus the current market
// regime into a BUY/SELL/none intent with a human-readable rationale.
// It never places orders and never mutates risk state.
type SignalGenerator struct {
	cfg SignalConfig
	log *zap.Logger
}

func NewSignalGenerator(cfg SignalConfig, log *zap.Logger) *SignalGenerator {
	return &SignalGenerator{cfg: cfg, log: log}
}

// Generate scores three independent conditions per direction on the latest
// bar. Two or more in the same direction make the signal. Insufficient or
// malformed data yields a none signal, logged, never an error.
func (g *SignalGenerator) Generate(symbol string, bars []domain.PriceBar, regime domain.MarketRegime) domain.Signal {
	none := domain.Signal{Symbol: symbol, Action: domain.ActionNone}

	if len(bars) < domain.MinBars {
		g.log.Info("not enough candle data, skipping",
			zap.String("symbol", symbol), zap.Int("bars", len(bars)))
		return none
	}
	for _, b := range bars {
		if b.Close <= 0 || b.High < b.Low {
			g.log.Warn("malformed candle, skipping symbol",
				zap.String("symbol", symbol), zap.Time("bar", b.Time))
			return none
		}
	}

	closes := domain.Closes(bars)
	emaFast := indicator.EMA(closes, g.cfg.EMAFast)
	emaSlow := indicator.EMA(closes, g.cfg.EMASlow)
	rsi := indicator.RSI(closes, g.cfg.RSIPeriod)
	macd, macdSignal, _ := indicator.MACD(closes, g.cfg.MACDFast, g.cfg.MACDSlow, g.cfg.MACDSignal)

	last := len(closes) - 1
	threshold := g.cfg.RSIThreshold + regimeBias(regime)

	var buyScore, sellScore int
	var reasons []string

	if emaFast[last] > emaSlow[last] {
		buyScore++
		reasons = append(reasons, fmt.Sprintf("EMA%d > EMA%d", g.cfg.EMAFast, g.cfg.EMASlow))
	}
	if rsi[last] > threshold {
		buyScore++
		reasons = append(reasons, fmt.Sprintf("RSI > %.1f", threshold))
	}
	if macd[last] > macdSignal[last] {
		buyScore++
		reasons = append(reasons, "MACD > Signal")
	}

	if emaFast[last] < emaSlow[last] {
		sellScore++
		reasons = append(reasons, fmt.Sprintf("EMA%d < EMA%d", g.cfg.EMAFast, g.cfg.EMASlow))
	}
	if rsi[last] < threshold {
		sellScore++
		reasons = append(reasons, fmt.Sprintf("RSI < %.1f", threshold))
	}
	if macd[last] < macdSignal[last] {
		sellScore++
		reasons = append(reasons, "MACD < Signal")
	}

	rationale := strings.Join(reasons, ", ")
	sig := none
	sig.Rationale = rationale

	switch {
	case buyScore >= 2:
		sig.Action = domain.ActionBuy
		sig.Score = buyScore
	case sellScore >= 2:
		sig.Action = domain.ActionSell
		sig.Score = sellScore
	}

	g.log.Info("signal",
		zap.String("symbol", symbol),
		zap.String("action", string(sig.Action)),
		zap.Int("score", sig.Score),
		zap.String("regime", string(regime)),
		zap.String("reason", rationale))
	return sig
}
