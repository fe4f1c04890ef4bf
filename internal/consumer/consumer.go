package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CacheEvicter drops cached product details.
type CacheEvicter interface {
	EvictProducts(ctx context.Context, productIDs []int) error
}

// Consumer listens for order events and evicts the cached details of every
// ordered product, so product pages show current stock.
type Consumer struct {
	reader  MessageReader
	catalog CacheEvicter
}

func NewConsumer(reader MessageReader, catalog CacheEvicter) *Consumer {
	return &Consumer{reader: reader, catalog: catalog}
}

// Run reads messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles one event keyed "order.<type>.<orderID>".
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	parts := strings.Split(string(msg.Key), ".")
	if len(parts) != 3 || parts[0] != "order" {
		log.Warn().Msgf("Skipping message with key %q", msg.Key)
		return
	}

	var event entity.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}

	switch parts[1] {
	case service.EventTypeOrderPlaced:
		ids := make([]int, 0, len(event.Items))
		for _, item := range event.Items {
			ids = append(ids, item.ProductID)
		}
		if err := c.catalog.EvictProducts(ctx, ids); err != nil {
			log.Error().Msgf("Error evicting products of order %d: %v", event.OrderID, err)
		}
	default:
		log.Warn().Msgf("Unknown event type: %s", parts[1])
	}
}
