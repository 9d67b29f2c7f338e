package domain

// MarketRegime is the coarse market bias derived from the benchmark index.
type MarketRegime string

const (
	RegimeBullish MarketRegime = "bullish"
	RegimeBearish MarketRegime = "bearish"
	RegimeNeutral MarketRegime = "neutral"
)
