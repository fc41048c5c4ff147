package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storerate/rating-client/internal/forms"
)

// AdminHandler serves the /admin routes.
type AdminHandler struct {
	db Backend
}

func NewAdminHandler(db Backend) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	f := queryFilters(c, "name", "email", "address", "role", "sortBy", "sortOrder")
	return c.JSON(http.StatusOK, h.db.Users(c.Request().Context(), f))
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req forms.NewUser
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := h.db.CreateAccount(c.Request().Context(), req.Profile()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

func (h *AdminHandler) ListStores(c echo.Context) error {
	f := queryFilters(c, "name", "email", "address", "sortBy", "sortOrder")
	return c.JSON(http.StatusOK, h.db.AdminStores(c.Request().Context(), f))
}

func (h *AdminHandler) CreateStore(c echo.Context) error {
	var req forms.NewStore
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := h.db.CreateStore(c.Request().Context(), req.Profile()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "Store created successfully"})
}

func (h *AdminHandler) ListOwners(c echo.Context) error {
	return c.JSON(http.StatusOK, h.db.Owners(c.Request().Context()))
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.db.AdminDashboard(c.Request().Context()))
}
