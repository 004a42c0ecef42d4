package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/ledger"
	"github.com/fintrack/portfolio-service/internal/models"
)

// TransactionLedger records imported trades through the same validation and
// position rebuild path as the HTTP API.
type TransactionLedger interface {
	CreateTransaction(req ledger.CreateTransactionRequest) (*models.Transaction, error)
}

// TransactionStore provides the duplicate check for imported trades.
type TransactionStore interface {
	TransactionExistsByExternalRef(externalRef string) (bool, error)
}

// Consumer ingests TRADE_EXECUTED events from external brokers and records
// them as transactions. Replays are deduplicated by external_ref.
type Consumer struct {
	reader *kafka.Reader
	ledger TransactionLedger
	store  TransactionStore
}

// NewConsumer creates a new Kafka consumer for broker trade events
func NewConsumer(brokers []string, topic, groupID string, ledgerSvc TransactionLedger, store TransactionStore) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		ledger: ledgerSvc,
		store:  store,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	log.Printf("Received message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event models.TradeExecutedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	// Only process TRADE_EXECUTED events
	if event.EventType != "TRADE_EXECUTED" {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}

	if event.Data.ExternalRef == "" {
		return fmt.Errorf("trade event from %s has no external_ref", event.Source)
	}

	// Check for duplicate (idempotency)
	exists, err := c.store.TransactionExistsByExternalRef(event.Data.ExternalRef)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate trade: %w", err)
	}
	if exists {
		log.Printf("Trade %s from %s already recorded, skipping", event.Data.ExternalRef, event.Source)
		return nil
	}

	req, err := c.convertEvent(event)
	if err != nil {
		return fmt.Errorf("failed to convert trade event: %w", err)
	}

	tx, err := c.ledger.CreateTransaction(req)
	if err != nil {
		return fmt.Errorf("failed to record imported trade %s: %w", event.Data.ExternalRef, err)
	}

	log.Printf("Recorded imported trade: %s %d %s @ %s (external_ref: %s)",
		tx.Side, tx.Quantity, tx.Symbol, tx.PricePerShare, tx.ExternalRef)

	return nil
}

// convertEvent maps a TradeExecutedEvent to a ledger request
func (c *Consumer) convertEvent(event models.TradeExecutedEvent) (ledger.CreateTransactionRequest, error) {
	data := event.Data

	quantity, err := strconv.ParseInt(data.Quantity, 10, 64)
	if err != nil {
		return ledger.CreateTransactionRequest{}, fmt.Errorf("invalid quantity %s: %w", data.Quantity, err)
	}

	price, err := decimal.NewFromString(data.Price)
	if err != nil {
		return ledger.CreateTransactionRequest{}, fmt.Errorf("invalid price %s: %w", data.Price, err)
	}

	fees := decimal.Zero
	if data.Fees != "" {
		fees, err = decimal.NewFromString(data.Fees)
		if err != nil {
			return ledger.CreateTransactionRequest{}, fmt.Errorf("invalid fees %s: %w", data.Fees, err)
		}
	}

	// Parse executed_at timestamp
	var executedAt time.Time
	if data.ExecutedAt != nil && *data.ExecutedAt != "" {
		executedAt, err = time.Parse(time.RFC3339, *data.ExecutedAt)
		if err != nil {
			// Try parsing without timezone
			executedAt, err = time.Parse("2006-01-02T15:04:05", *data.ExecutedAt)
			if err != nil {
				executedAt = time.Now()
			}
		}
	} else {
		executedAt = time.Now()
	}

	return ledger.CreateTransactionRequest{
		OwnerID:       data.OwnerID,
		Symbol:        data.Symbol,
		CompanyName:   data.CompanyName,
		Side:          strings.ToUpper(data.Side),
		Quantity:      quantity,
		PricePerShare: price,
		Fees:          fees,
		Notes:         "imported from " + event.Source,
		ExternalRef:   data.ExternalRef,
		ExecutedAt:    executedAt,
	}, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
