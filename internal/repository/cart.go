package repository

import (
	"context"
	"sort"
	"sync"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

// CartRepository stores session-scoped cart lines. At most one line exists
// per (session, product) pair.
type CartRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]entity.CartItem, error)
	// AddOrIncrement creates the line or increases its quantity by qty. A line
	// never holds more than entity.MaxLineQuantity units.
	AddOrIncrement(ctx context.Context, sessionID string, productID, qty int) (entity.CartItem, error)
	UpdateQuantity(ctx context.Context, id, qty int) (entity.CartItem, error)
	Remove(ctx context.Context, id int) error
	ClearSession(ctx context.Context, sessionID string) error
}

type cartKey struct {
	sessionID string
	productID int
}

type MemoryCartRepository struct {
	mu     sync.Mutex
	nextID int
	items  map[int]*entity.CartItem
	index  map[cartKey]int
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		nextID: 1,
		items:  make(map[int]*entity.CartItem),
		index:  make(map[cartKey]int),
	}
}

func (r *MemoryCartRepository) ListBySession(ctx context.Context, sessionID string) ([]entity.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []entity.CartItem
	for _, item := range r.items {
		if item.SessionID == sessionID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *MemoryCartRepository) AddOrIncrement(ctx context.Context, sessionID string, productID, qty int) (entity.CartItem, error) {
	if err := checkLineQuantity(qty); err != nil {
		return entity.CartItem{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cartKey{sessionID: sessionID, productID: productID}
	if id, ok := r.index[key]; ok {
		item := r.items[id]
		if item.Quantity > entity.MaxLineQuantity-qty {
			return entity.CartItem{}, apperror.Validation("quantity", "cart already holds %d units, at most %d allowed", item.Quantity, entity.MaxLineQuantity)
		}
		item.Quantity += qty
		return *item, nil
	}

	item := &entity.CartItem{
		ID:        r.nextID,
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  qty,
	}
	r.nextID++
	r.items[item.ID] = item
	r.index[key] = item.ID
	return *item, nil
}

func (r *MemoryCartRepository) UpdateQuantity(ctx context.Context, id, qty int) (entity.CartItem, error) {
	if err := checkLineQuantity(qty); err != nil {
		return entity.CartItem{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return entity.CartItem{}, apperror.NotFound("Cart item", id)
	}
	item.Quantity = qty
	return *item, nil
}

func (r *MemoryCartRepository) Remove(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.items[id]; ok {
		delete(r.index, cartKey{sessionID: item.SessionID, productID: item.ProductID})
		delete(r.items, id)
	}
	return nil
}

func (r *MemoryCartRepository) ClearSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.SessionID == sessionID {
			delete(r.index, cartKey{sessionID: sessionID, productID: item.ProductID})
			delete(r.items, id)
		}
	}
	return nil
}

func checkLineQuantity(qty int) error {
	if qty < 1 || qty > entity.MaxLineQuantity {
		return apperror.Validation("quantity", "must be between 1 and %d", entity.MaxLineQuantity)
	}
	return nil
}
