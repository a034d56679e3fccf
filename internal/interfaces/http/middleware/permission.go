package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/interfaces/http/dto"
)

// RequireRoles lets the request through when the actor's primary role is one
// of roles. ADMIN always passes. It must run after ResolveActor.
func RequireRoles(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !actor.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Role not permitted for this operation", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to administrators
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(identity.RoleAdmin)
}
