package helpers

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyAuth guards the management API. The key travels in the X-API-Key
// header; anything else is a 401.
func APIKeyAuth(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get("X-API-Key")
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return JSONError(c, http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}
