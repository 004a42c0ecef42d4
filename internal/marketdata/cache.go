package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

// CachedProvider is a Redis read-through cache in front of another Provider.
// Keys are derived from the lookup parameters; entries expire after TTL.
// Any cache failure falls through to the underlying provider, so Redis being
// down degrades to slower lookups, never to errors.
type CachedProvider struct {
	source Provider
	client *redis.Client
	ttl    time.Duration
}

// NewCachedProvider wraps source with a Redis cache.
func NewCachedProvider(source Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{
		source: source,
		client: client,
		ttl:    ttl,
	}
}

// LatestClose returns the cached latest close for symbol, fetching and
// caching on miss.
func (c *CachedProvider) LatestClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := fmt.Sprintf("marketdata:close:%s", symbol)

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		if price, perr := decimal.NewFromString(cached); perr == nil {
			return price, nil
		}
	}

	price, err := c.source.LatestClose(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.client.Set(ctx, key, price.String(), c.ttl).Err(); err != nil {
		log.Printf("cache set failed for %s: %v", key, err)
	}
	return price, nil
}

// DailyBars returns the cached daily series for (symbol, days), fetching and
// caching on miss.
func (c *CachedProvider) DailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	key := fmt.Sprintf("marketdata:daily:%s:%d", symbol, days)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var bars []models.PriceBar
		if jerr := json.Unmarshal(cached, &bars); jerr == nil && len(bars) > 0 {
			return bars, nil
		}
	}

	bars, err := c.source.DailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(bars); jerr == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("cache set failed for %s: %v", key, err)
		}
	}
	return bars, nil
}
