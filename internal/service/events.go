package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

// EventTypeOrderPlaced is the type of the event published after checkout.
const EventTypeOrderPlaced = "placed"

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event entity.OrderEvent) error
}

// KafkaPublisher writes order events to a kafka topic keyed
// "order.<type>.<orderID>".
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event entity.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(OrderEventKey(event.Type, event.OrderID)),
		Value: payload,
	}
	return p.writer.WriteMessages(ctx, msg)
}

// OrderEventKey builds the message key, e.g. order.placed.12.
func OrderEventKey(eventType string, orderID int) string {
	return fmt.Sprintf("order.%s.%d", eventType, orderID)
}
