package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// placeOrderRequest is the checkout form: shipping fields flat at the top
// level next to the cart lines.
type placeOrderRequest struct {
	entity.ShippingInfo
	PaymentMethod entity.PaymentMethod `json:"paymentMethod" validate:"oneof=cod upi card"`
	CartItems     []entity.OrderLine   `json:"cartItems" validate:"min=1,dive"`
	TotalAmount   float64              `json:"totalAmount" validate:"gt=0"`
	PromoApplied  bool                 `json:"promoApplied"`
	SessionID     string               `json:"sessionId" validate:"notblank"`
}

// PlaceOrder --> POST /api/orders
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	req := placeOrderRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}

	order, err := h.orderService.PlaceOrder(c.Request().Context(), service.PlaceOrderRequest{
		Shipping:       req.ShippingInfo,
		PaymentMethod:  req.PaymentMethod,
		Lines:          req.CartItems,
		ClaimedTotal:   req.TotalAmount,
		PromoApplied:   req.PromoApplied,
		SessionID:      req.SessionID,
		IdempotencyKey: c.Request().Header.Get("Idempotent-Key"),
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(201, map[string]interface{}{
		"orderId": order.ID,
		"message": "Order placed successfully",
	})
}

// GetOrder --> GET /api/admin/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, order)
}
