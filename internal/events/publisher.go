// Package events announces confirmed orders on the platform event bus.
// Publishing is best-effort: checkout success never depends on it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/openshop/checkout/internal/domain"
)

// Publisher emits an event after an order is confirmed. Implementations
// must tolerate broker outages without surfacing errors to the shopper.
type Publisher interface {
	OrderPlaced(ctx context.Context, orderID string, payload domain.OrderPayload)
}

type OrderPlacedEvent struct {
	OrderID     string               `json:"order_id"`
	UserID      string               `json:"user_id"`
	Items       []domain.OrderItem   `json:"items"`
	Method      domain.PaymentMethod `json:"payment_method"`
	TotalAmount int64                `json:"total_amount"`
	PlacedAt    time.Time            `json:"placed_at"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "orders-placed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, orderID string, payload domain.OrderPayload) {
	event := OrderPlacedEvent{
		OrderID:     orderID,
		UserID:      payload.UserID,
		Items:       payload.Items,
		Method:      payload.Method,
		TotalAmount: payload.Pricing.Total,
		PlacedAt:    payload.PlacedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal order placed event: %v", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(orderID), // order_id for ordering
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_placed")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("failed to publish order placed event for order %s: %v", orderID, err)
	}
}

func (p *KafkaPublisher) Close() {
	if err := p.writer.Close(); err != nil {
		fmt.Printf("error closing kafka writer: %v\n", err)
	}
}
