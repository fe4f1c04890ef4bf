package repository

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

type OrderRepository interface {
	// CreateOrder stores the order and all of its items as one unit and
	// fills in the generated ids.
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	DeleteOrder(ctx context.Context, id int) error
}

type MemoryOrderRepository struct {
	mu          sync.Mutex
	nextOrderID int
	nextItemID  int
	orders      map[int]*entity.Order
	now         func() time.Time
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		nextOrderID: 1,
		nextItemID:  1,
		orders:      make(map[int]*entity.Order),
		now:         time.Now,
	}
}

func (r *MemoryOrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *order
	stored.ID = r.nextOrderID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	stored.Items = make([]entity.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.ID = r.nextItemID + i
		item.OrderID = stored.ID
		stored.Items[i] = item
	}
	r.nextOrderID++
	r.nextItemID += len(order.Items)
	r.orders[stored.ID] = &stored

	created := stored
	created.Items = append([]entity.OrderItem(nil), stored.Items...)
	return &created, nil
}

func (r *MemoryOrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperror.NotFound("Order", id)
	}
	found := *order
	found.Items = append([]entity.OrderItem(nil), order.Items...)
	return &found, nil
}

func (r *MemoryOrderRepository) DeleteOrder(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.orders, id)
	return nil
}

// Count returns the number of stored orders.
func (r *MemoryOrderRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
