package service

import (
	"context"
	"errors"
	"strings"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/pricing"
	"storefront-service/internal/repository"
	"storefront-service/internal/validation"
)

// AddItemRequest is one add-to-cart submission.
type AddItemRequest struct {
	ProductID int    `json:"productId" validate:"gt=0"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=1000"`
	SessionID string `json:"sessionId" validate:"notblank"`
}

// UpdateQuantityRequest sets a cart line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=1000"`
}

// CartService manages session carts and prices them.
type CartService struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
}

func NewCartService(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
	}
}

// GetCart returns the session's lines joined with their products. Lines whose
// product no longer exists are left out.
func (s *CartService) GetCart(ctx context.Context, sessionID string) ([]entity.CartItemWithProduct, error) {
	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]entity.CartItemWithProduct, 0, len(lines))
	for _, l := range lines {
		out = append(out, entity.CartItemWithProduct{
			ID:        l.item.ID,
			ProductID: l.item.ProductID,
			Quantity:  l.item.Quantity,
			Product: entity.CartProduct{
				ID:        l.product.ID,
				Name:      l.product.Name,
				Slug:      l.product.Slug,
				Price:     l.product.Price,
				SalePrice: l.product.SalePrice,
				ImageURL:  l.product.ImageURL,
				Weight:    l.product.Weight,
			},
		})
	}
	return out, nil
}

type cartLine struct {
	item    entity.CartItem
	product *entity.Product
}

func (s *CartService) loadLines(ctx context.Context, sessionID string) ([]cartLine, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListBySession(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing cart for session %s", sessionID)
		return nil, err
	}

	lines := make([]cartLine, 0, len(items))
	for _, item := range items {
		product, err := s.catalogRepo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				logger.Warn().Msgf("Cart item %d references missing product %d", item.ID, item.ProductID)
				continue
			}
			return nil, err
		}
		lines = append(lines, cartLine{item: item, product: product})
	}
	return lines, nil
}

// AddItem adds qty units of a product to the session cart, merging with an
// existing line for the same product.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID, qty int) (entity.CartItem, error) {
	if err := validation.Struct(AddItemRequest{ProductID: productID, Quantity: qty, SessionID: sessionID}); err != nil {
		return entity.CartItem{}, err
	}

	if _, err := s.catalogRepo.GetProduct(ctx, productID); err != nil {
		return entity.CartItem{}, err
	}

	item, err := s.cartRepo.AddOrIncrement(ctx, sessionID, productID, qty)
	if err != nil {
		if !errors.Is(err, apperror.ErrValidation) {
			logger.Error().Err(err).Msgf("Error adding product %d to cart", productID)
		}
		return entity.CartItem{}, err
	}
	return item, nil
}

// UpdateQuantity sets a line's quantity. Removal goes through RemoveItem.
func (s *CartService) UpdateQuantity(ctx context.Context, id, qty int) (entity.CartItem, error) {
	if err := validation.Struct(UpdateQuantityRequest{Quantity: qty}); err != nil {
		return entity.CartItem{}, err
	}
	return s.cartRepo.UpdateQuantity(ctx, id, qty)
}

func (s *CartService) RemoveItem(ctx context.Context, id int) error {
	return s.cartRepo.Remove(ctx, id)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	return s.cartRepo.ClearSession(ctx, sessionID)
}

// Summary prices the session cart at current effective prices. An empty
// promo code applies no discount; an unknown one is rejected.
func (s *CartService) Summary(ctx context.Context, sessionID, promoCode string) (entity.CartSummary, error) {
	promo := false
	if strings.TrimSpace(promoCode) != "" {
		if !pricing.IsPromoCode(promoCode) {
			return entity.CartSummary{}, apperror.Validation("promoCode", "is not valid")
		}
		promo = true
	}

	cart, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return entity.CartSummary{}, err
	}
	lines := make([]pricing.Line, 0, len(cart))
	for _, l := range cart {
		lines = append(lines, pricing.LineFor(*l.product, l.item.Quantity))
	}
	return pricing.Summarize(lines, promo), nil
}
