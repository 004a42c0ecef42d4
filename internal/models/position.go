package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents the current holding for one (owner, symbol) pair,
// derived from the full transaction history. The valuation fields stay null
// until the first successful price refresh.
type Position struct {
	ID              int                 `json:"id"`
	OwnerID         string              `json:"owner_id"`
	Symbol          string              `json:"symbol"`
	CompanyName     string              `json:"company_name,omitempty"`
	Quantity        int64               `json:"quantity"`
	AverageCost     decimal.Decimal     `json:"average_cost"`
	Invested        decimal.Decimal     `json:"invested"`
	CurrentPrice    decimal.NullDecimal `json:"current_price,omitempty"`
	CurrentValue    decimal.NullDecimal `json:"current_value,omitempty"`
	GainLoss        decimal.NullDecimal `json:"gain_loss,omitempty"`
	GainLossPercent decimal.NullDecimal `json:"gain_loss_percent,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// PositionEvent represents a Kafka event for position changes
type PositionEvent struct {
	EventType string    `json:"event_type"`
	Position  *Position `json:"position,omitempty"`
	Symbol    string    `json:"symbol"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TopPerformer is a ranking entry in the portfolio summary.
type TopPerformer struct {
	Symbol          string          `json:"symbol"`
	CompanyName     string          `json:"company_name,omitempty"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
}

// PortfolioSummary aggregates all open positions for one owner.
type PortfolioSummary struct {
	TotalInvested        decimal.Decimal `json:"total_invested"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	NumberOfPositions    int             `json:"number_of_positions"`
	Positions            []*Position     `json:"positions"`
	TopGainers           []TopPerformer  `json:"top_gainers"`
	TopLosers            []TopPerformer  `json:"top_losers"`
}
