package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSIKnownSeries(t *testing.T) {
	// deltas: +1, -1, +2, +1, -2 -> avgGain 0.8, avgLoss 0.6
	// rs = 1.3333, rsi = 100 - 100/2.3333 = 57.1428...
	prices := []float64{44, 45, 44, 46, 47, 45}

	rsi, err := RSI(prices, 5)
	require.NoError(t, err)
	assert.Equal(t, 57.14, rsi)
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)
}

func TestRSIAllLossesIsZero(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rsi)
}

func TestRSIStaysInBounds(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + math.Sin(float64(i)*0.7)*10
	}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rsi, 0.0)
	assert.LessOrEqual(t, rsi, 100.0)
}

func TestRSIInsufficientData(t *testing.T) {
	prices := make([]float64, 10)

	_, err := RSI(prices, 14)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRSIRejectsNonPositivePeriod(t *testing.T) {
	_, err := RSI([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestEMAConstantSeries(t *testing.T) {
	prices := []float64{50, 50, 50, 50, 50, 50}

	ema, err := EMA(prices, 3)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, ema, 1e-9)
}

func TestEMASmallSeries(t *testing.T) {
	// seed = (2+3)/2 = 2.5; multiplier = 2/3
	// fold over last point: (3-2.5)*2/3 + 2.5 = 2.8333...
	ema, err := EMA([]float64{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.8333, ema, 0.0001)
}

func TestEMAInsufficientData(t *testing.T) {
	_, err := EMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100
	}

	value, err := MACD(prices, 12, 26, 9)
	require.NoError(t, err)
	assert.Equal(t, 0.0, value.MACD)
	assert.Equal(t, 0.0, value.Signal)
	assert.Equal(t, 0.0, value.Histogram)
}

func TestMACDUptrendIsPositive(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + float64(i)*2
	}

	value, err := MACD(prices, 12, 26, 9)
	require.NoError(t, err)
	assert.Greater(t, value.MACD, 0.0, "fast EMA should lead in an uptrend")
	assert.InDelta(t, value.MACD*0.9, value.Signal, 0.01)
	assert.InDelta(t, value.MACD-value.Signal, value.Histogram, 0.01)
}

func TestMACDInsufficientData(t *testing.T) {
	prices := make([]float64, 25)

	_, err := MACD(prices, 12, 26, 9)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
