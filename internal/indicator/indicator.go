package indicator

// Pure price-series indicators. Every function takes a chronologically
// ordered series and returns a slice of the same length; only the caller
// decides which row matters.

// EMA computes an exponential moving average with alpha 2/(period+1),
// seeded with the first value. No warm-up bias correction.
func EMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = series[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// RSI computes the relative strength index over a rolling window of simple
// average gains and losses. Values are always in [0,100]; a window with no
// losses saturates at exactly 100 instead of dividing by zero.
// Entries before the window is full are 0.
func RSI(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) < period+1 {
		return out
	}

	gains := make([]float64, len(series))
	losses := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(series); i++ {
		var avgGain, avgLoss float64
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)

		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - (100 / (1 + rs))
	}
	return out
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA of the MACD line over signalPeriod) and the histogram.
func MACD(series []float64, fast, slow, signalPeriod int) (macd, signal, histogram []float64) {
	emaFast := EMA(series, fast)
	emaSlow := EMA(series, slow)

	macd = make([]float64, len(series))
	for i := range series {
		macd[i] = emaFast[i] - emaSlow[i]
	}

	signal = EMA(macd, signalPeriod)

	histogram = make([]float64, len(series))
	for i := range series {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}
