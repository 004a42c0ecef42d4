package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooProvider fetches daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooProvider creates a provider with the given request timeout.
func NewYahooProvider(baseURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooProvider{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LatestClose returns the close of the most recent daily bar.
func (p *YahooProvider) LatestClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	bars, err := p.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return decimal.Zero, err
	}
	if len(bars) == 0 {
		return decimal.Zero, fmt.Errorf("no price bars for %s: %w", symbol, ErrUnavailable)
	}
	return bars[len(bars)-1].Close, nil
}

// DailyBars returns up to `days` daily bars, oldest first.
func (p *YahooProvider) DailyBars(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	bars, err := p.fetchChart(ctx, symbol, "1d", rangeForDays(days))
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price bars for %s: %w", symbol, ErrUnavailable)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, interval, rng string) ([]models.PriceBar, error) {
	u := fmt.Sprintf("%s%s?interval=%s&range=%s", p.BaseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", symbol, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body for %s: %v: %w", symbol, err, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d for %s: %w", resp.StatusCode, symbol, ErrUnavailable)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart for %s: %v: %w", symbol, err, ErrUnavailable)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("api error for %s: %s: %w", symbol, chart.Chart.Error.Description, ErrUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("empty chart for %s: %w", symbol, ErrUnavailable)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for %s: %w", symbol, ErrUnavailable)
	}
	quote := result.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null bars on holidays
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		bars = append(bars, models.PriceBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   floatAt(quote.Open, i),
			High:   floatAt(quote.High, i),
			Low:    floatAt(quote.Low, i),
			Close:  decimal.NewFromFloat(*quote.Close[i]).Round(4),
			Volume: volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func floatAt(vs []*float64, i int) decimal.Decimal {
	if i >= len(vs) || vs[i] == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*vs[i]).Round(4)
}

func rangeForDays(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}
