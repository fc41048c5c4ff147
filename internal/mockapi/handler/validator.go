package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storerate/rating-client/internal/forms"
)

// echoValidator lets Echo call c.Validate(req) with the shared form rules.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() echo.Validator {
	return echoValidator{}
}

// Validate satisfies the echo.Validator interface. The first field message
// becomes the 400 body.
func (echoValidator) Validate(i any) error {
	if err := forms.Check(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// bindAndValidate decodes the JSON body into req and applies the form rules.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}
