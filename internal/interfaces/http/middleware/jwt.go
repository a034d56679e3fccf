package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rms/backend/internal/infrastructure/auth"
	"github.com/rms/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Authentication context keys
const (
	PortalIdentityKey = "portal_identity"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
)

// TokenVerifier validates a portal bearer token
type TokenVerifier interface {
	Verify(tokenString string) (*auth.PortalIdentity, error)
}

// PortalAuth requires a valid portal bearer token and stores the verified
// identity in the gin context. Any failure answers 401.
func PortalAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		identity, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			log.Debug("Portal token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
			case errors.Is(err, auth.ErrTokenNotYetValid):
				abortUnauthorized(c, dto.ErrCodeTokenNotYetValid, "Token is not yet valid")
			default:
				abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid token")
			}
			return
		}

		c.Set(PortalIdentityKey, identity)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetPortalIdentity returns the identity stored by PortalAuth
func GetPortalIdentity(c *gin.Context) *auth.PortalIdentity {
	if v, ok := c.Get(PortalIdentityKey); ok {
		if identity, ok := v.(*auth.PortalIdentity); ok {
			return identity
		}
	}
	return nil
}
