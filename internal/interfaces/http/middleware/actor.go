package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/infrastructure/logger"
	"github.com/rms/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ActorKey is the gin context key of the resolved identity.Actor
const ActorKey = "actor"

// ActorResolver maps a portal user to the RMS actor; nil means unprovisioned
type ActorResolver interface {
	ResolveActor(ctx context.Context, portalUserID string) (*identity.Actor, error)
}

// ResolveActor turns the portal identity set by PortalAuth into an RMS actor.
// Unprovisioned users are refused with 403. The request context is enriched
// with the actor's logger fields and the client IP recorded on audit events.
func ResolveActor(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		portal := GetPortalIdentity(c)
		if portal == nil {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		ctx := c.Request.Context()
		actor, err := resolver.ResolveActor(ctx, portal.PortalUserID)
		if err != nil {
			logger.FromContext(ctx).Error("Failed to resolve actor",
				zap.String("portal_user_id", portal.PortalUserID),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			return
		}
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotProvisioned, "User is not provisioned in RMS", GetRequestID(c)))
			return
		}

		ctx, _ = logger.WithActor(ctx, logger.FromContext(ctx), actor.ID.String(), string(actor.Role))
		ctx = audit.WithIPAddress(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Set(ActorKey, *actor)
		c.Set(logger.GinActorIDKey, actor.ID.String())
		c.Next()
	}
}

// GetActor returns the actor stored by ResolveActor
func GetActor(c *gin.Context) (identity.Actor, bool) {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(identity.Actor); ok {
			return actor, true
		}
	}
	return identity.Actor{}, false
}
