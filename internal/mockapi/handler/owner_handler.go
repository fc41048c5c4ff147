package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// OwnerHandler serves the /owner routes. An owner without a store gets a
// 200 with hasStore=false rather than an error.
type OwnerHandler struct {
	db Backend
}

func NewOwnerHandler(db Backend) *OwnerHandler {
	return &OwnerHandler{db: db}
}

func (h *OwnerHandler) Dashboard(c echo.Context) error {
	ownerID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.db.OwnerSummary(c.Request().Context(), ownerID))
}

func (h *OwnerHandler) Ratings(c echo.Context) error {
	ownerID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.db.OwnerSummary(c.Request().Context(), ownerID))
}
