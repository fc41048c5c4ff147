package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/forms"
)

type AuthHandler struct {
	db     Backend
	tokens TokenIssuer
}

func NewAuthHandler(db Backend, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens}
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"password"`
}

// Signup registers a normal user. It does not log the caller in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req forms.Signup
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p := req.Profile()
	if _, err := h.db.CreateAccount(c.Request().Context(), domain.NewUserProfile{
		Name: p.Name, Email: p.Email, Password: p.Password, Address: p.Address, Role: domain.RoleUser,
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

// Login authenticates a user and returns a JWT token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req forms.Login
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.db.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// UpdatePassword changes the caller's password. Issued tokens stay valid.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req passwordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.db.UpdatePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully"})
}
