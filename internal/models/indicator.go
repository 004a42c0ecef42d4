package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicator kind constants
const (
	IndicatorRSI  = "RSI"
	IndicatorMACD = "MACD"
)

// RSIResult is a computed Relative Strength Index value. Results are computed
// on demand and never persisted. Demo marks a synthetic fallback value served
// when market data was unavailable or too short.
type RSIResult struct {
	Indicator string          `json:"indicator"`
	Symbol    string          `json:"symbol"`
	Period    int             `json:"period"`
	Value     decimal.Decimal `json:"value"`
	Demo      bool            `json:"demo,omitempty"`
	AsOf      time.Time       `json:"as_of"`
}

// MACDResult is a computed MACD / signal / histogram triple.
type MACDResult struct {
	Indicator string          `json:"indicator"`
	Symbol    string          `json:"symbol"`
	MACD      decimal.Decimal `json:"macd"`
	Signal    decimal.Decimal `json:"signal"`
	Histogram decimal.Decimal `json:"histogram"`
	Demo      bool            `json:"demo,omitempty"`
	AsOf      time.Time       `json:"as_of"`
}
