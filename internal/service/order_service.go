package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/pricing"
	"storefront-service/internal/repository"
	"storefront-service/internal/validation"
)

// PlaceOrderRequest is a checkout submission.
type PlaceOrderRequest struct {
	Shipping       entity.ShippingInfo  `json:"shipping"`
	PaymentMethod  entity.PaymentMethod `json:"paymentMethod" validate:"oneof=cod upi card"`
	Lines          []entity.OrderLine   `json:"cartItems" validate:"min=1,dive"`
	ClaimedTotal   float64              `json:"totalAmount" validate:"gt=0"`
	PromoApplied   bool                 `json:"promoApplied"`
	SessionID      string               `json:"sessionId" validate:"notblank"`
	IdempotencyKey string               `json:"-"`
}

// ProductCache drops cached product views whose stock has changed.
type ProductCache interface {
	EvictProducts(ctx context.Context, productIDs []int) error
}

// OrderService turns a checkout submission into a pending order. Stock
// reservation, order creation and cart clearing are applied as one unit:
// a failing step undoes the steps before it.
type OrderService struct {
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	cartRepo    repository.CartRepository
	idempotency repository.IdempotencyStore
	publisher   EventPublisher
	cache       ProductCache
	now         func() time.Time
}

// NewOrderService creates a new instance of OrderService. publisher may be
// nil when no event bus is configured, cache when products are not cached.
func NewOrderService(orderRepo repository.OrderRepository, catalogRepo repository.CatalogRepository, cartRepo repository.CartRepository, idempotency repository.IdempotencyStore, publisher EventPublisher, cache ProductCache) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		cartRepo:    cartRepo,
		idempotency: idempotency,
		publisher:   publisher,
		cache:       cache,
		now:         time.Now,
	}
}

// PlaceOrder validates the request against the catalog, reserves stock,
// stores the order with its items and empties the session cart.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *entity.Order, err error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		claimed, claimErr := s.idempotency.Claim(ctx, req.IdempotencyKey)
		if claimErr != nil {
			logger.Error().Err(claimErr).Msg("Error claiming idempotent key")
			return nil, claimErr
		}
		if !claimed {
			return nil, apperror.Conflict("idempotent key %s already used", req.IdempotencyKey)
		}
		defer func() {
			if err == nil {
				return
			}
			// A failed submission may be retried with the same key.
			if relErr := s.idempotency.Release(context.WithoutCancel(ctx), req.IdempotencyKey); relErr != nil {
				logger.Error().Err(relErr).Msgf("Error releasing idempotent key %s", req.IdempotencyKey)
			}
		}()
	}

	items, total, err := s.priceLines(ctx, req)
	if err != nil {
		return nil, err
	}

	stock := make([]entity.StockLine, len(req.Lines))
	for i, l := range req.Lines {
		stock[i] = entity.StockLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	if err := s.catalogRepo.ReserveStock(ctx, stock); err != nil {
		logger.Warn().Err(err).Msgf("Stock reservation failed for session %s", req.SessionID)
		return nil, err
	}

	// Compensation must run even if the caller has gone away.
	undoCtx := context.WithoutCancel(ctx)

	created, err := s.orderRepo.CreateOrder(ctx, &entity.Order{
		Status:        entity.OrderStatusPending,
		TotalAmount:   total,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
		SessionID:     req.SessionID,
		CreatedAt:     s.now().UTC(),
		Items:         items,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		s.releaseStock(undoCtx, stock)
		return nil, err
	}

	if err := s.cartRepo.ClearSession(ctx, req.SessionID); err != nil {
		logger.Error().Err(err).Msgf("Error clearing cart for session %s, rolling back order %d", req.SessionID, created.ID)
		if delErr := s.orderRepo.DeleteOrder(undoCtx, created.ID); delErr != nil {
			logger.Error().Err(delErr).Msgf("Error deleting order %d", created.ID)
		}
		s.releaseStock(undoCtx, stock)
		return nil, err
	}

	s.evictStock(ctx, stock)
	s.publishPlaced(ctx, created)
	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			logger.Debug().Msgf("Order %d not found", id)
		} else {
			logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		}
		return nil, err
	}
	return order, nil
}

// priceLines resolves every product, checks the claimed unit prices and the
// claimed total against the catalog, and returns the items to store with
// the server-side total.
func (s *OrderService) priceLines(ctx context.Context, req PlaceOrderRequest) ([]entity.OrderItem, float64, error) {
	items := make([]entity.OrderItem, 0, len(req.Lines))
	lines := make([]pricing.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		product, err := s.catalogRepo.GetProduct(ctx, l.ProductID)
		if err != nil {
			return nil, 0, err
		}
		unit := product.EffectivePrice()
		if !pricing.WithinTolerance(l.Price, unit, pricing.PriceTolerance) {
			logger.Warn().Msgf("Price mismatch for product %d: claimed %.2f, catalog %.2f", product.ID, l.Price, unit)
			return nil, 0, apperror.Validation("cartItems", "price of %s has changed to %.2f", product.Name, unit)
		}
		items = append(items, entity.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, Price: unit})
		lines = append(lines, pricing.LineFor(*product, l.Quantity))
	}

	summary := pricing.Summarize(lines, req.PromoApplied)
	if !pricing.WithinTolerance(req.ClaimedTotal, summary.Total, pricing.TotalTolerance) {
		logger.Warn().Msgf("Total mismatch for session %s: claimed %.2f, computed %.2f", req.SessionID, req.ClaimedTotal, summary.Total)
		return nil, 0, apperror.Validation("totalAmount", "does not match order total %.2f", summary.Total)
	}
	return items, summary.Total, nil
}

func (s *OrderService) releaseStock(ctx context.Context, stock []entity.StockLine) {
	if err := s.catalogRepo.ReleaseStock(ctx, stock); err != nil {
		logger.Error().Err(err).Msg("Error releasing reserved stock")
	}
}

// evictStock drops cached detail views of the ordered products so the next
// read shows the new stock. Best effort, like publishPlaced.
func (s *OrderService) evictStock(ctx context.Context, stock []entity.StockLine) {
	if s.cache == nil {
		return
	}
	ids := make([]int, len(stock))
	for i, l := range stock {
		ids[i] = l.ProductID
	}
	if err := s.cache.EvictProducts(ctx, ids); err != nil {
		logger.Warn().Err(err).Msg("Error evicting product cache")
	}
}

// publishPlaced is best effort; the order is already committed.
func (s *OrderService) publishPlaced(ctx context.Context, order *entity.Order) {
	if s.publisher == nil {
		return
	}
	event := entity.OrderEvent{
		Type:    EventTypeOrderPlaced,
		OrderID: order.ID,
		Total:   order.TotalAmount,
		Items:   order.Items,
		At:      order.CreatedAt,
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		logger.Error().Err(err).Msgf("Error publishing event for order %d", order.ID)
	}
}

// validatePlaceOrder checks the request shape, then caps the units of each
// product across lines.
func validatePlaceOrder(req PlaceOrderRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	totals := make(map[int]int, len(req.Lines))
	for _, l := range req.Lines {
		totals[l.ProductID] += l.Quantity
		if totals[l.ProductID] > entity.MaxLineQuantity {
			return apperror.Validation("cartItems", "at most %d units of product %d per order", entity.MaxLineQuantity, l.ProductID)
		}
	}
	return nil
}
