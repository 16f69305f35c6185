package helpers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// JSONSuccess writes data with the given code, or 204 when there is nothing
// to return.
func JSONSuccess(c echo.Context, code int, data any) error {
	if data == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(code, data)
}

// JSONError writes {"error":"<text>"} with the provided HTTP code.
// Accepts string, error, or any type (it will be fmt.Sprintf'd).
func JSONError(c echo.Context, code int, err any) error {
	var msg string
	switch v := err.(type) {
	case nil:
		msg = http.StatusText(code)
	case string:
		if v == "" {
			msg = http.StatusText(code)
		} else {
			msg = v
		}
	case error:
		msg = v.Error()
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return c.JSON(code, map[string]string{"error": msg})
}

func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return JSONError(c, http.StatusBadRequest, "invalid json")
	}

	if err := validate.Struct(req); err != nil {
		return JSONError(c, http.StatusBadRequest, "missing or invalid fields")
	}

	return nil
}
