package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rms/backend/internal/interfaces/http/dto"
)

// SwaggerGate answers 404 for the documentation routes unless enabled
func SwaggerGate(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
