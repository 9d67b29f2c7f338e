package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/domain"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/indicator"
)

// ContextClassifier derives the coarse market regime from a benchmark
// index (NIFTY 50 by default) once per decision cycle.
type ContextClassifier struct {
	market       domain.MarketData
	benchmark    string
	interval     string
	lookbackDays int
	log          *zap.Logger
}

func NewContextClassifier(market domain.MarketData, benchmark, interval string, lookbackDays int, log *zap.Logger) *ContextClassifier {
	return &ContextClassifier{
		market:       market,
		benchmark:    benchmark,
		interval:     interval,
		lookbackDays: lookbackDays,
		log:          log,
	}
}

// Classify fetches benchmark candles and compares EMA(20) to EMA(50) on the
// latest bar. Anything that prevents the comparison (fetch error, short
// series) degrades to neutral; the classifier never fails.
func (c *ContextClassifier) Classify(ctx context.Context) domain.MarketRegime {
	bars, err := c.market.GetHistoricalBars(ctx, c.benchmark, c.interval, c.lookbackDays)
	if err != nil {
		c.log.Warn("benchmark fetch failed, defaulting to neutral",
			zap.String("benchmark", c.benchmark), zap.Error(err))
		return domain.RegimeNeutral
	}

	regime := ClassifyBars(bars)
	c.log.Info("market context",
		zap.String("benchmark", c.benchmark),
		zap.String("regime", string(regime)),
		zap.Int("bars", len(bars)))
	return regime
}

// ClassifyBars is the pure regime rule: EMA(20) above EMA(50) on the last
// close is bullish, below is bearish, equal is neutral. Fewer than MinBars
// bars is neutral.
func ClassifyBars(bars []domain.PriceBar) domain.MarketRegime {
	if len(bars) < domain.MinBars {
		return domain.RegimeNeutral
	}

	closes := domain.Closes(bars)
	emaFast := indicator.EMA(closes, 20)
	emaSlow := indicator.EMA(closes, 50)

	last := len(closes) - 1
	switch {
	case emaFast[last] > emaSlow[last]:
		return domain.RegimeBullish
	case emaFast[last] < emaSlow[last]:
		return domain.RegimeBearish
	default:
		return domain.RegimeNeutral
	}
}
