package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GetCart --> GET /api/cart?sessionId=
func (h *CartHandler) GetCart(c echo.Context) error {
	items, err := h.cartService.GetCart(c.Request().Context(), c.QueryParam("sessionId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]interface{}{"items": items})
}

// AddItem --> POST /api/cart/add
func (h *CartHandler) AddItem(c echo.Context) error {
	req := service.AddItemRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}

	item, err := h.cartService.AddItem(c.Request().Context(), req.SessionID, req.ProductID, req.Quantity)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(201, item)
}

// UpdateItem --> PATCH /api/cart/item/:id
func (h *CartHandler) UpdateItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	req := service.UpdateQuantityRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}

	item, err := h.cartService.UpdateQuantity(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, item)
}

// RemoveItem --> DELETE /api/cart/item/:id
func (h *CartHandler) RemoveItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	if err := h.cartService.RemoveItem(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]string{"message": "Item removed from cart"})
}

// ClearCart --> DELETE /api/cart?sessionId=
func (h *CartHandler) ClearCart(c echo.Context) error {
	if err := h.cartService.Clear(c.Request().Context(), c.QueryParam("sessionId")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]string{"message": "Cart cleared"})
}

// Summary --> GET /api/cart/summary?sessionId=&promo=
func (h *CartHandler) Summary(c echo.Context) error {
	summary, err := h.cartService.Summary(c.Request().Context(), c.QueryParam("sessionId"), c.QueryParam("promo"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, summary)
}
