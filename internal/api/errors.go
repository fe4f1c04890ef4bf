package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"storefront-service/internal/apperror"
)

// errorResponse maps a service error to its HTTP status. Unexpected errors
// are logged and answered without detail.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrInsufficientStock):
		return c.JSON(400, map[string]string{"error": err.Error()})
	case errors.Is(err, apperror.ErrNotFound):
		return c.JSON(404, map[string]string{"error": err.Error()})
	case errors.Is(err, apperror.ErrConflict):
		return c.JSON(409, map[string]string{"error": err.Error()})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	return c.JSON(500, map[string]string{"error": "Internal server error"})
}

func invalidPayload(c echo.Context) error {
	return c.JSON(400, map[string]string{"error": "Invalid request payload"})
}
