package mockapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/mockapi/memdb"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps data-layer
// errors to their status codes and renders {"error": "<message>"}.
// Unexpected errors are logged and never leak to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, memdb.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, memdb.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, memdb.ErrStoreEmailTaken):
		return http.StatusBadRequest, "Store email already registered"
	case errors.Is(err, memdb.ErrOwnerNotFound):
		return http.StatusBadRequest, "Owner not found"
	case errors.Is(err, memdb.ErrOwnerHasStore):
		return http.StatusBadRequest, "Owner already has a store assigned"
	case errors.Is(err, memdb.ErrWrongPassword):
		return http.StatusBadRequest, "Current password is incorrect"
	case errors.Is(err, memdb.ErrRatingRange):
		return http.StatusBadRequest, "Rating must be between 1 and 5"
	case errors.Is(err, memdb.ErrStoreNotFound):
		return http.StatusNotFound, "Store not found"
	case errors.Is(err, memdb.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
