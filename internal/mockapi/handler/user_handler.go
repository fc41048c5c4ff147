package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storerate/rating-client/internal/forms"
)

// UserHandler serves the /user routes shared by normal users and owners.
type UserHandler struct {
	db Backend
}

func NewUserHandler(db Backend) *UserHandler {
	return &UserHandler{db: db}
}

func (h *UserHandler) ListStores(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	f := queryFilters(c, "name", "address", "sortBy", "sortOrder")
	return c.JSON(http.StatusOK, h.db.UserStores(c.Request().Context(), userID, f))
}

func (h *UserHandler) SubmitRating(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req forms.Rating
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.db.SubmitRating(c.Request().Context(), userID, req.StoreID, req.Rating)
	if err != nil {
		return err
	}
	msg := "Rating submitted successfully"
	if updated {
		msg = "Rating updated successfully"
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}
