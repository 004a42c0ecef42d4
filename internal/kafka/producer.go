package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fintrack/portfolio-service/internal/models"
)

// Producer handles publishing events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishTransactionCreated publishes a transaction created event
func (p *Producer) PublishTransactionCreated(ctx context.Context, t *models.Transaction) error {
	event := models.TransactionEvent{
		EventType:   "TRANSACTION_CREATED",
		Transaction: t,
		Symbol:      t.Symbol,
		OwnerID:     t.OwnerID,
		Timestamp:   time.Now(),
	}
	return p.publish(ctx, t.OwnerID+":"+t.Symbol, event)
}

// PublishTransactionDeleted publishes a transaction deleted event
func (p *Producer) PublishTransactionDeleted(ctx context.Context, t *models.Transaction) error {
	event := models.TransactionEvent{
		EventType:   "TRANSACTION_DELETED",
		Transaction: t,
		Symbol:      t.Symbol,
		OwnerID:     t.OwnerID,
		Timestamp:   time.Now(),
	}
	return p.publish(ctx, t.OwnerID+":"+t.Symbol, event)
}

// PublishPositionUpdated publishes the rebuilt position after a ledger change
func (p *Producer) PublishPositionUpdated(ctx context.Context, pos *models.Position) error {
	event := models.PositionEvent{
		EventType: "POSITION_UPDATED",
		Position:  pos,
		Symbol:    pos.Symbol,
		OwnerID:   pos.OwnerID,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, pos.OwnerID+":"+pos.Symbol, event)
}

// PublishPositionClosed publishes a position closed event after the holding
// returns to zero
func (p *Producer) PublishPositionClosed(ctx context.Context, ownerID, symbol string) error {
	event := models.PositionEvent{
		EventType: "POSITION_CLOSED",
		Symbol:    symbol,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, ownerID+":"+symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
