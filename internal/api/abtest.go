package api

import (
	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

type ABTestHandler struct {
	abTestService *service.ABTestService
}

func NewABTestHandler(abTestService *service.ABTestService) *ABTestHandler {
	return &ABTestHandler{abTestService: abTestService}
}

type trackingRequest struct {
	TestName  string `json:"testName" validate:"notblank"`
	Variant   string `json:"variant" validate:"notblank"`
	SessionID string `json:"sessionId" validate:"notblank"`
}

// RecordImpression --> POST /api/ab-test/impression
func (h *ABTestHandler) RecordImpression(c echo.Context) error {
	req := trackingRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}
	if err := h.abTestService.RecordImpression(c.Request().Context(), req.TestName, req.Variant, req.SessionID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]bool{"success": true})
}

// RecordConversion --> POST /api/ab-test/conversion
func (h *ABTestHandler) RecordConversion(c echo.Context) error {
	req := trackingRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}
	if err := h.abTestService.RecordConversion(c.Request().Context(), req.TestName, req.Variant, req.SessionID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]bool{"success": true})
}

// Assignment --> GET /api/ab-test/assignment?sessionId=
func (h *ABTestHandler) Assignment(c echo.Context) error {
	assignment, err := h.abTestService.Assign(c.Request().Context(), c.QueryParam("sessionId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, assignment)
}

// Report --> GET /api/admin/ab-test/:name/report
func (h *ABTestHandler) Report(c echo.Context) error {
	report, err := h.abTestService.Report(c.Request().Context(), c.Param("name"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, report)
}
