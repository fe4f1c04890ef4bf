package api

import (
	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

type NewsletterHandler struct {
	newsletterService *service.NewsletterService
}

func NewNewsletterHandler(newsletterService *service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletterService: newsletterService}
}

// Subscribe --> POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c echo.Context) error {
	req := struct {
		Email string `json:"email" validate:"required"`
	}{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}

	added, err := h.newsletterService.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		return errorResponse(c, err)
	}
	if !added {
		return c.JSON(200, map[string]interface{}{"message": "Already subscribed", "alreadySubscribed": true})
	}
	return c.JSON(201, map[string]string{"message": "Subscribed successfully"})
}
