package marketdata

import (
	"context"
	"log"

	"github.com/fintrack/portfolio-service/internal/models"
)

// SeriesWithFallback fetches a daily series from primary and falls back to the
// demo provider when the primary fails, marking the result as demo data. The
// chart endpoint always answers; valuation refresh deliberately does NOT use
// this path and leaves stale prices instead.
func SeriesWithFallback(ctx context.Context, primary Provider, demo *DemoProvider, symbol string, days int) (*models.PriceSeries, error) {
	series := &models.PriceSeries{Symbol: symbol, Interval: "daily"}

	bars, err := primary.DailyBars(ctx, symbol, days)
	if err != nil {
		log.Printf("daily bars for %s unavailable, serving demo data: %v", symbol, err)
		bars, err = demo.DailyBars(ctx, symbol, days)
		if err != nil {
			return nil, err
		}
		series.Demo = true
	}
	series.Bars = bars
	return series, nil
}
