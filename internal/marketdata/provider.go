// Package marketdata supplies daily price series and latest close prices for
// equity symbols, with caching and deterministic demo fallbacks layered over
// an external HTTP source.
package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

// ErrUnavailable wraps any upstream failure: network errors, rate limits,
// empty responses. Callers decide whether to skip, fall back, or retry.
var ErrUnavailable = errors.New("market data unavailable")

// Provider supplies ordered daily price history and latest closing prices.
type Provider interface {
	// LatestClose returns the most recent daily closing price for symbol.
	LatestClose(ctx context.Context, symbol string) (decimal.Decimal, error)
	// DailyBars returns up to `days` daily OHLCV bars, oldest first.
	DailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error)
}
