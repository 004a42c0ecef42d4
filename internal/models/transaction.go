package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction side constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Transaction represents a single buy or sell of an equity. Transactions are
// immutable once created; positions are always rebuilt by replaying them in
// executed_at order.
type Transaction struct {
	ID            int             `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"company_name,omitempty"`
	Side          string          `json:"side"`
	Quantity      int64           `json:"quantity"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Fees          decimal.Decimal `json:"fees"`
	Notes         string          `json:"notes,omitempty"`
	ExternalRef   string          `json:"external_ref,omitempty"`
	ExecutedAt    time.Time       `json:"executed_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionEvent represents a Kafka event for transaction changes
type TransactionEvent struct {
	EventType   string       `json:"event_type"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Symbol      string       `json:"symbol"`
	OwnerID     string       `json:"owner_id"`
	Timestamp   time.Time    `json:"timestamp"`
}

// TradeExecutedEvent is the inbound message shape for trades executed at an
// external broker and streamed in through Kafka.
type TradeExecutedEvent struct {
	EventType string `json:"event_type"`
	Source    string `json:"source"`
	Data      struct {
		ExternalRef string  `json:"external_ref"`
		OwnerID     string  `json:"owner_id"`
		Symbol      string  `json:"symbol"`
		CompanyName string  `json:"company_name"`
		Side        string  `json:"side"`
		Quantity    string  `json:"quantity"`
		Price       string  `json:"price"`
		Fees        string  `json:"fees"`
		ExecutedAt  *string `json:"executed_at"`
	} `json:"data"`
}
