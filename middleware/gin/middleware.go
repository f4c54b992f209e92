package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/middleware"
	"github.com/reoring/formbind/model"
)

// ValidateJSON binds the incoming JSON to shape like middleware.Validate
// (start from middleware.DefaultOptions), stores the value in the request
// context and on validation failure aborts with 400 and an endpoint
// validation error body.
func ValidateJSON(shape *model.Shape, opts middleware.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, payload, err := middleware.Bind(c.Request, shape, opts)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &formbind.EndpointError{Type: opts.Type, Message: err.Error()})
			return
		}
		if payload != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, payload)
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithValue(c.Request.Context(), v))
		c.Next()
	}
}

// GetValue fetches the validated value from gin.Context.
func GetValue(c *gin.Context) (any, bool) {
	return middleware.ValueFromContext(c.Request.Context())
}
