package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storerate/rating-client/internal/core/domain"
)

// Gate admits a request only when the caller's role resolves op to the
// route being served. The server therefore enforces the same role table the
// client gates on: an owner reaching /user/stores passes, an admin does not.
// It must run after Auth.
func Gate(op domain.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, _ := c.Get(KeyRole).(string)
			role, err := domain.ParseRole(raw)
			if err != nil {
				return denied(c)
			}
			ep, err := role.Endpoint(op)
			if err != nil || ep.Method != c.Request().Method || ep.Path != c.Path() {
				return denied(c)
			}
			return next(c)
		}
	}
}

func denied(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": "Access denied"})
}
