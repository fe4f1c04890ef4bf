package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type fakeEvicter struct {
	calls [][]int
}

func (f *fakeEvicter) EvictProducts(ctx context.Context, productIDs []int) error {
	f.calls = append(f.calls, productIDs)
	return nil
}

type scriptedReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	if msg.Key == nil {
		return kafka.Message{}, errors.New("broker hiccup")
	}
	return msg, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func placedMessage(t *testing.T, orderID int, productIDs ...int) kafka.Message {
	t.Helper()
	event := entity.OrderEvent{Type: service.EventTypeOrderPlaced, OrderID: orderID}
	for _, id := range productIDs {
		event.Items = append(event.Items, entity.OrderItem{ProductID: id, Quantity: 1})
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(service.OrderEventKey(event.Type, orderID)), Value: value}
}

func TestProcessMessageEvictsOrderedProducts(t *testing.T) {
	evicter := &fakeEvicter{}
	c := NewConsumer(nil, evicter)

	c.processMessage(context.Background(), placedMessage(t, 7, 1, 3))
	assert.Equal(t, [][]int{{1, 3}}, evicter.calls)
}

func TestProcessMessageSkipsUnknownMessages(t *testing.T) {
	evicter := &fakeEvicter{}
	c := NewConsumer(nil, evicter)

	c.processMessage(context.Background(), kafka.Message{Key: []byte("user.created.1"), Value: []byte("{}")})
	c.processMessage(context.Background(), kafka.Message{Key: []byte("order.cancelled.1"), Value: []byte("{}")})
	c.processMessage(context.Background(), kafka.Message{Key: []byte("order.placed.1"), Value: []byte("not json")})
	assert.Empty(t, evicter.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &scriptedReader{
		msgs:   []kafka.Message{placedMessage(t, 1, 2), {}, placedMessage(t, 2, 5)},
		cancel: cancel,
	}
	evicter := &fakeEvicter{}

	require.NoError(t, NewConsumer(reader, evicter).Run(ctx))
	assert.Equal(t, [][]int{{2}, {5}}, evicter.calls)
	assert.True(t, reader.closed)
}
