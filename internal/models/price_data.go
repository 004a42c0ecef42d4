package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents one daily OHLCV bar from the market data provider.
type PriceBar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// PriceSeries is an ordered (oldest first) run of daily bars for a symbol.
type PriceSeries struct {
	Symbol   string     `json:"symbol"`
	Interval string     `json:"interval"`
	Demo     bool       `json:"demo,omitempty"`
	Bars     []PriceBar `json:"bars"`
}

// Closes extracts the closing prices as float64 for indicator math.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i], _ = b.Close.Float64()
	}
	return closes
}
