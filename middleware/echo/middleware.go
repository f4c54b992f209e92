package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/middleware"
	"github.com/reoring/formbind/model"
)

// ValidateJSON binds the request JSON to shape like middleware.Validate,
// stores the value in the request context on success, or answers 400 with
// an endpoint validation error body.
func ValidateJSON(shape *model.Shape, opts middleware.Options) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, payload, err := middleware.Bind(c.Request(), shape, opts)
			if err != nil {
				return c.JSON(http.StatusBadRequest, &formbind.EndpointError{Type: opts.Type, Message: err.Error()})
			}
			if payload != nil {
				return c.JSON(http.StatusBadRequest, payload)
			}
			ctx := middleware.ContextWithValue(c.Request().Context(), v)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValue fetches the validated value from echo.Context.
func GetValue(c echo.Context) (any, bool) {
	return middleware.ValueFromContext(c.Request().Context())
}
