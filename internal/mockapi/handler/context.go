package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storerate/rating-client/internal/mockapi/middleware"
)

// ctxUserID extracts the caller id injected by the Auth middleware.
func ctxUserID(c echo.Context) (int64, error) {
	id, _ := c.Get(middleware.KeyUserID).(int64)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication claims")
	}
	return id, nil
}

// queryFilters forwards the listed query parameters that are set.
func queryFilters(c echo.Context, keys ...string) map[string]string {
	f := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := c.QueryParam(k); v != "" {
			f[k] = v
		}
	}
	return f
}
