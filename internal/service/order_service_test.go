package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, event entity.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type failingCartRepo struct {
	*repository.MemoryCartRepository
}

func (r failingCartRepo) ClearSession(ctx context.Context, sessionID string) error {
	return errors.New("cart store unavailable")
}

type failingOrderRepo struct {
	*repository.MemoryOrderRepository
}

func (r failingOrderRepo) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	return nil, errors.New("order store unavailable")
}

type orderFixture struct {
	svc       *OrderService
	catalog   *repository.MemoryCatalogRepository
	carts     *repository.MemoryCartRepository
	orders    *repository.MemoryOrderRepository
	publisher *recordingPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		catalog:   newTestCatalogRepo(t),
		carts:     repository.NewMemoryCartRepository(),
		orders:    repository.NewMemoryOrderRepository(),
		publisher: &recordingPublisher{},
	}
	f.svc = NewOrderService(f.orders, f.catalog, f.carts, repository.NewMemoryIdempotencyStore(), f.publisher, nil)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func (f *orderFixture) stock(t *testing.T, id int) int {
	t.Helper()
	p, err := f.catalog.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func (f *orderFixture) cartSize(t *testing.T, session string) int {
	t.Helper()
	items, err := f.carts.ListBySession(context.Background(), session)
	require.NoError(t, err)
	return len(items)
}

func validShipping() entity.ShippingInfo {
	return entity.ShippingInfo{
		FullName: "Asha Verma",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Address:  "12 Raj Nagar",
		City:     entity.LocalityGhaziabad,
		Pincode:  "201002",
	}
}

// cashews ×1 at 549 and almonds ×2 at 699: subtotal 1947, tax 97, total 2044.
func validOrderRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		Shipping:      validShipping(),
		PaymentMethod: entity.PaymentCOD,
		Lines: []entity.OrderLine{
			{ProductID: 1, Quantity: 1, Price: 549},
			{ProductID: 3, Quantity: 2, Price: 699},
		},
		ClaimedTotal: 2044,
		SessionID:    "s1",
	}
}

func (f *orderFixture) fillCart(t *testing.T, req PlaceOrderRequest) {
	t.Helper()
	for _, l := range req.Lines {
		_, err := f.carts.AddOrIncrement(context.Background(), req.SessionID, l.ProductID, l.Quantity)
		require.NoError(t, err)
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newOrderFixture(t)
	req := validOrderRequest()
	f.fillCart(t, req)

	order, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, 2044.0, order.TotalAmount)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), order.CreatedAt)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 549.0, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[1].Quantity)
	assert.Equal(t, order.ID, order.Items[1].OrderID)

	assert.Equal(t, 99, f.stock(t, 1))
	assert.Equal(t, 118, f.stock(t, 3))
	assert.Zero(t, f.cartSize(t, "s1"))
	assert.Equal(t, 1, f.orders.Count())

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, EventTypeOrderPlaced, f.publisher.events[0].Type)
	assert.Equal(t, order.ID, f.publisher.events[0].OrderID)

	stored, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Items, stored.Items)
}

func TestPlaceOrderRecordsServerTotal(t *testing.T) {
	f := newOrderFixture(t)
	req := validOrderRequest()
	req.ClaimedTotal = 2044.8

	order, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2044.0, order.TotalAmount)
}

func TestPlaceOrderWithPromo(t *testing.T) {
	f := newOrderFixture(t)
	req := validOrderRequest()
	req.PromoApplied = true
	req.ClaimedTotal = 1944

	order, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1944.0, order.TotalAmount)
}

func TestPlaceOrderRejectsForgedPrices(t *testing.T) {
	tests := map[string]func(*PlaceOrderRequest){
		"total too low":   func(r *PlaceOrderRequest) { r.ClaimedTotal = 1 },
		"total too high":  func(r *PlaceOrderRequest) { r.ClaimedTotal = 2046 },
		"line price":      func(r *PlaceOrderRequest) { r.Lines[0].Price = 1 },
		"list price":      func(r *PlaceOrderRequest) { r.Lines[0].Price = 649 },
		"unclaimed promo": func(r *PlaceOrderRequest) { r.ClaimedTotal = 1944 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			f := newOrderFixture(t)
			req := validOrderRequest()
			f.fillCart(t, req)
			mutate(&req)

			_, err := f.svc.PlaceOrder(context.Background(), req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, 100, f.stock(t, 1))
			assert.Equal(t, 2, f.cartSize(t, "s1"))
			assert.Zero(t, f.orders.Count())
		})
	}
}

func TestPlaceOrderInsufficientStockLeavesNoTrace(t *testing.T) {
	f := newOrderFixture(t)
	req := validOrderRequest()
	// subtotal 1947 + 31 × 1299 = 42216, tax 2111
	req.Lines = append(req.Lines, entity.OrderLine{ProductID: 5, Quantity: 31, Price: 1299})
	req.ClaimedTotal = 44327
	f.fillCart(t, req)

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, "Not enough stock for Luxury Mixed Dry Fruits Box. Available: 30", err.Error())

	assert.Equal(t, 100, f.stock(t, 1))
	assert.Equal(t, 120, f.stock(t, 3))
	assert.Equal(t, 30, f.stock(t, 5))
	assert.Equal(t, 3, f.cartSize(t, "s1"))
	assert.Zero(t, f.orders.Count())
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	f := newOrderFixture(t)
	req := validOrderRequest()
	req.Lines[1].ProductID = 42

	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 100, f.stock(t, 1))
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := map[string]func(*PlaceOrderRequest){
		"short name":      func(r *PlaceOrderRequest) { r.Shipping.FullName = "Al" },
		"bad email":       func(r *PlaceOrderRequest) { r.Shipping.Email = "asha@" },
		"short phone":     func(r *PlaceOrderRequest) { r.Shipping.Phone = "98765" },
		"short address":   func(r *PlaceOrderRequest) { r.Shipping.Address = "12" },
		"city both":       func(r *PlaceOrderRequest) { r.Shipping.City = entity.LocalityBoth },
		"city unknown":    func(r *PlaceOrderRequest) { r.Shipping.City = "delhi" },
		"pincode letters": func(r *PlaceOrderRequest) { r.Shipping.Pincode = "20100a" },
		"pincode length":  func(r *PlaceOrderRequest) { r.Shipping.Pincode = "2010021" },
		"payment":         func(r *PlaceOrderRequest) { r.PaymentMethod = "cheque" },
		"no session":      func(r *PlaceOrderRequest) { r.SessionID = "" },
		"no lines":        func(r *PlaceOrderRequest) { r.Lines = nil },
		"zero quantity":   func(r *PlaceOrderRequest) { r.Lines[0].Quantity = 0 },
		"zero total":      func(r *PlaceOrderRequest) { r.ClaimedTotal = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			f := newOrderFixture(t)
			req := validOrderRequest()
			mutate(&req)

			_, err := f.svc.PlaceOrder(context.Background(), req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestPlaceOrderRejectsOversizedQuantities(t *testing.T) {
	tests := map[string][]entity.OrderLine{
		"wrapping quantities": {
			{ProductID: 1, Quantity: math.MaxInt64, Price: 549},
			{ProductID: 1, Quantity: math.MaxInt64, Price: 549},
		},
		"line over the cap": {{ProductID: 1, Quantity: entity.MaxLineQuantity + 1, Price: 549}},
		"sum over the cap": {
			{ProductID: 1, Quantity: entity.MaxLineQuantity, Price: 549},
			{ProductID: 1, Quantity: 1, Price: 549},
		},
	}
	for name, lines := range tests {
		t.Run(name, func(t *testing.T) {
			f := newOrderFixture(t)
			req := validOrderRequest()
			req.Lines = lines

			_, err := f.svc.PlaceOrder(context.Background(), req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, 100, f.stock(t, 1))
			assert.Zero(t, f.orders.Count())
		})
	}
}

func TestPlaceOrderEvictsCachedProducts(t *testing.T) {
	f := newOrderFixture(t)
	mr, rdb := newTestRedis(t)
	catalog := NewCatalogService(f.catalog, rdb)
	f.svc.cache = catalog
	ctx := context.Background()

	before, err := catalog.GetProductBySlug(ctx, "premium-cashews")
	require.NoError(t, err)
	assert.Equal(t, 100, before.Quantity)
	require.True(t, mr.Exists("product:premium-cashews"))

	_, err = f.svc.PlaceOrder(ctx, validOrderRequest())
	require.NoError(t, err)
	assert.False(t, mr.Exists("product:premium-cashews"))

	after, err := catalog.GetProductBySlug(ctx, "premium-cashews")
	require.NoError(t, err)
	assert.Equal(t, 99, after.Quantity)
}

func TestGetOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	var logs bytes.Buffer
	prev := logger
	logger = zerolog.New(&logs)
	t.Cleanup(func() { logger = prev })

	_, err := f.svc.GetOrder(ctx, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotContains(t, logs.String(), `"level":"error"`, "a missing order is not a server error")

	placed, err := f.svc.PlaceOrder(ctx, validOrderRequest())
	require.NoError(t, err)
	got, err := f.svc.GetOrder(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.TotalAmount, got.TotalAmount)
	assert.Len(t, got.Items, 2)
}

func TestPlaceOrderIdempotentKey(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	bad := validOrderRequest()
	bad.IdempotencyKey = "k1"
	bad.ClaimedTotal = 5
	_, err := f.svc.PlaceOrder(ctx, bad)
	require.ErrorIs(t, err, apperror.ErrValidation)

	// the failed attempt released the key
	req := validOrderRequest()
	req.IdempotencyKey = "k1"
	_, err = f.svc.PlaceOrder(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 1, f.orders.Count())
	assert.Equal(t, 99, f.stock(t, 1))
}

func TestPlaceOrderCompensatesFailedCartClear(t *testing.T) {
	f := newOrderFixture(t)
	f.svc.cartRepo = failingCartRepo{f.carts}
	req := validOrderRequest()
	f.fillCart(t, req)

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.Error(t, err)

	assert.Zero(t, f.orders.Count())
	assert.Equal(t, 100, f.stock(t, 1))
	assert.Equal(t, 120, f.stock(t, 3))
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrderReleasesStockWhenOrderFails(t *testing.T) {
	f := newOrderFixture(t)
	f.svc.orderRepo = failingOrderRepo{f.orders}
	req := validOrderRequest()
	f.fillCart(t, req)

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, 100, f.stock(t, 1))
	assert.Equal(t, 120, f.stock(t, 3))
	assert.Equal(t, 2, f.cartSize(t, "s1"))
}

func TestPlaceOrderPublishFailureKeepsOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.err = errors.New("broker down")

	order, err := f.svc.PlaceOrder(context.Background(), validOrderRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.Count())
	assert.NotZero(t, order.ID)
}

func TestPlaceOrderWithoutPublisher(t *testing.T) {
	f := newOrderFixture(t)
	f.svc.publisher = nil

	_, err := f.svc.PlaceOrder(context.Background(), validOrderRequest())
	require.NoError(t, err)
}

func TestPlaceOrderConcurrentCheckoutsDoNotOversell(t *testing.T) {
	f := newOrderFixture(t)

	// luxury box ×10: subtotal 12990, tax 650 (649.5 rounded up)
	req := PlaceOrderRequest{
		Shipping:      validShipping(),
		PaymentMethod: entity.PaymentUPI,
		Lines:         []entity.OrderLine{{ProductID: 5, Quantity: 10, Price: 1299}},
		ClaimedTotal:  13640,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := req
			r.SessionID = string(rune('a' + i))
			if _, err := f.svc.PlaceOrder(context.Background(), r); err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, placed)
	assert.Zero(t, f.stock(t, 5))
	assert.Equal(t, 3, f.orders.Count())
}
