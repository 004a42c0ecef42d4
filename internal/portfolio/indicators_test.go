package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fintrack/portfolio-service/internal/marketdata"
	"github.com/fintrack/portfolio-service/internal/models"
)

// MockBarProvider serves a fixed series of closes for every symbol
type MockBarProvider struct {
	closes []float64
	err    error
}

func (m *MockBarProvider) LatestClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("not implemented")
}

func (m *MockBarProvider) DailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now().UTC()
	bars := make([]models.PriceBar, len(m.closes))
	for i, close := range m.closes {
		bars[i] = models.PriceBar{
			Date:  now.AddDate(0, 0, i-len(m.closes)),
			Close: decimal.NewFromFloat(close),
		}
	}
	return bars, nil
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func TestRSIFromLiveData(t *testing.T) {
	svc := NewIndicators(&MockBarProvider{closes: risingCloses(42)}, marketdata.NewDemoProvider())

	result := svc.RSI(context.Background(), "AAPL", 14)
	assert.False(t, result.Demo)
	assert.Equal(t, models.IndicatorRSI, result.Indicator)
	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, 14, result.Period)
	assert.True(t, decimal.NewFromInt(100).Equal(result.Value),
		"strictly rising series gives RSI 100, got %s", result.Value)
}

func TestRSIFallsBackWhenProviderFails(t *testing.T) {
	svc := NewIndicators(&MockBarProvider{err: fmt.Errorf("upstream down")}, marketdata.NewDemoProvider())

	result := svc.RSI(context.Background(), "AAPL", 14)
	assert.True(t, result.Demo)
	assert.True(t, decimal.NewFromFloat(58.42).Equal(result.Value))
}

func TestRSIFallsBackOnShortSeries(t *testing.T) {
	svc := NewIndicators(&MockBarProvider{closes: risingCloses(10)}, marketdata.NewDemoProvider())

	result := svc.RSI(context.Background(), "TSLA", 14)
	assert.True(t, result.Demo, "10 bars cannot feed a 14-period RSI")
	assert.True(t, decimal.NewFromFloat(72.15).Equal(result.Value))
}

func TestMACDFromLiveData(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 250.0
	}
	svc := NewIndicators(&MockBarProvider{closes: closes}, marketdata.NewDemoProvider())

	result := svc.MACD(context.Background(), "MSFT")
	assert.False(t, result.Demo)
	assert.Equal(t, models.IndicatorMACD, result.Indicator)
	assert.True(t, result.MACD.IsZero(), "flat series has no divergence, got %s", result.MACD)
	assert.True(t, result.Signal.IsZero())
	assert.True(t, result.Histogram.IsZero())
}

func TestMACDFallsBackWhenProviderFails(t *testing.T) {
	svc := NewIndicators(&MockBarProvider{err: fmt.Errorf("upstream down")}, marketdata.NewDemoProvider())

	result := svc.MACD(context.Background(), "AAPL")
	assert.True(t, result.Demo)
	assert.True(t, decimal.NewFromFloat(2.34).Equal(result.MACD))
	assert.True(t, decimal.NewFromFloat(1.89).Equal(result.Signal))
	assert.True(t, decimal.NewFromFloat(0.45).Equal(result.Histogram))
}

func TestMACDFallsBackOnShortSeries(t *testing.T) {
	svc := NewIndicators(&MockBarProvider{closes: risingCloses(20)}, marketdata.NewDemoProvider())

	result := svc.MACD(context.Background(), "UNKN")
	assert.True(t, result.Demo)
	assert.True(t, decimal.NewFromFloat(1.0).Equal(result.MACD), "unknown symbols get the default triple")
}
