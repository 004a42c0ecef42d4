// Package indicator provides pure, stateless technical indicator math over
// ordered sequences of closing prices (oldest first).
package indicator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned when a series has fewer points than the
// requested indicator needs. Callers are expected to recover with a fallback
// value rather than surface this to the end user.
var ErrInsufficientData = errors.New("insufficient price data")

// MACDValue holds a MACD / signal / histogram triple.
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// RSI computes the Relative Strength Index over the first `period`
// price-to-price deltas. This is the single-window form of Wilder's RSI: the
// average gain and loss are taken once over indices 1..period, without the
// running smoothing across the rest of the series.
// Requires len(prices) >= period+1.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi: period must be positive, got %d", period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("rsi: need %d prices, have %d: %w", period+1, len(prices), ErrInsufficientData)
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	return round2(rsi), nil
}

// EMA computes an exponential moving average seeded with the simple average
// of the most recent `period` prices, then folded forward over that same
// trailing window. This matches the upstream contract: it is an approximation,
// not the textbook full-history EMA.
// Requires len(prices) >= period.
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("ema: period must be positive, got %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("ema: need %d prices, have %d: %w", period, len(prices), ErrInsufficientData)
	}

	var sum float64
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := len(prices) - period + 1; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}
	return ema, nil
}

// MACD computes the MACD line as EMA(fast) - EMA(slow). The signal line is
// approximated as macd * 0.9 rather than an EMA of the MACD series; the
// histogram is the difference. Preserved as-is for compatibility with the
// values users already see.
// Requires len(prices) >= slow.
func MACD(prices []float64, fast, slow, signal int) (MACDValue, error) {
	if len(prices) < slow {
		return MACDValue{}, fmt.Errorf("macd: need %d prices, have %d: %w", slow, len(prices), ErrInsufficientData)
	}
	_ = signal // reserved: the approximation does not use the signal period

	fastEMA, err := EMA(prices, fast)
	if err != nil {
		return MACDValue{}, err
	}
	slowEMA, err := EMA(prices, slow)
	if err != nil {
		return MACDValue{}, err
	}

	macd := fastEMA - slowEMA
	sig := macd * 0.9
	return MACDValue{
		MACD:      round2(macd),
		Signal:    round2(sig),
		Histogram: round2(macd - sig),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
