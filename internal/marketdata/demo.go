package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

// DemoProvider serves deterministic synthetic market data so that analytics
// endpoints always answer, even when the real provider is down or rate
// limited. Values are keyed by symbol and stable across calls.
type DemoProvider struct {
	basePrices map[string]float64
	rsiValues  map[string]float64
	macdValues map[string][3]float64
}

// NewDemoProvider creates a provider with the stock demo fixture set.
func NewDemoProvider() *DemoProvider {
	return &DemoProvider{
		basePrices: map[string]float64{
			"AAPL":  180.0,
			"TSLA":  240.0,
			"MSFT":  380.0,
			"GOOGL": 140.0,
			"AMZN":  150.0,
			"META":  320.0,
			"NVDA":  480.0,
			"AMD":   120.0,
		},
		rsiValues: map[string]float64{
			"AAPL":  58.42,
			"TSLA":  72.15,
			"MSFT":  45.23,
			"GOOGL": 28.67,
			"AMZN":  61.89,
			"META":  55.34,
			"NVDA":  68.91,
			"AMD":   42.17,
		},
		macdValues: map[string][3]float64{
			"AAPL":  {2.34, 1.89, 0.45},
			"TSLA":  {-1.23, -0.89, -0.34},
			"MSFT":  {3.45, 2.98, 0.47},
			"GOOGL": {-2.12, -1.67, -0.45},
			"AMZN":  {1.56, 1.52, 0.04},
			"META":  {0.89, 0.76, 0.13},
			"NVDA":  {4.23, 3.87, 0.36},
			"AMD":   {-0.67, -0.54, -0.13},
		},
	}
}

// LatestClose returns the close of the newest synthetic bar.
func (p *DemoProvider) LatestClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	bars, err := p.DailyBars(ctx, symbol, 1)
	if err != nil {
		return decimal.Zero, err
	}
	return bars[len(bars)-1].Close, nil
}

// DailyBars generates `days` synthetic daily bars, oldest first. The shape is
// a sine wave around a per-symbol base price, so repeated calls for the same
// symbol and day produce identical values.
func (p *DemoProvider) DailyBars(_ context.Context, symbol string, days int) ([]models.PriceBar, error) {
	if days <= 0 {
		days = 30
	}
	base, ok := p.basePrices[strings.ToUpper(symbol)]
	if !ok {
		base = 100.0
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]models.PriceBar, 0, days)
	for i := days - 1; i >= 0; i-- {
		variation := math.Sin(float64(i)*0.3)*5 + float64(i%3-1)*2
		open := base + variation
		close := open + math.Sin(float64(i)*0.5)*3
		high := math.Max(open, close) + math.Abs(math.Sin(float64(i)*0.7))*2
		low := math.Min(open, close) - math.Abs(math.Cos(float64(i)*0.7))*2
		volume := int64(10000000 + math.Abs(math.Sin(float64(i)*0.4))*5000000)

		bars = append(bars, models.PriceBar{
			Date:   now.AddDate(0, 0, -i),
			Open:   decimal.NewFromFloat(open).Round(4),
			High:   decimal.NewFromFloat(high).Round(4),
			Low:    decimal.NewFromFloat(low).Round(4),
			Close:  decimal.NewFromFloat(close).Round(4),
			Volume: volume,
		})
	}
	return bars, nil
}

// RSI returns the canned RSI value for symbol. Unknown symbols get a stable
// hash-derived value in [50, 80).
func (p *DemoProvider) RSI(symbol string, period int) models.RSIResult {
	sym := strings.ToUpper(symbol)
	value, ok := p.rsiValues[sym]
	if !ok {
		value = 50.0 + float64(hashOf(sym)%30)
	}
	return models.RSIResult{
		Indicator: models.IndicatorRSI,
		Symbol:    sym,
		Period:    period,
		Value:     decimal.NewFromFloat(value),
		Demo:      true,
		AsOf:      time.Now(),
	}
}

// MACD returns the canned MACD triple for symbol, with a mild default for
// unknown symbols.
func (p *DemoProvider) MACD(symbol string) models.MACDResult {
	sym := strings.ToUpper(symbol)
	values, ok := p.macdValues[sym]
	if !ok {
		values = [3]float64{1.0, 0.8, 0.2}
	}
	return models.MACDResult{
		Indicator: models.IndicatorMACD,
		Symbol:    sym,
		MACD:      decimal.NewFromFloat(values[0]),
		Signal:    decimal.NewFromFloat(values[1]),
		Histogram: decimal.NewFromFloat(values[2]),
		Demo:      true,
		AsOf:      time.Now(),
	}
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
