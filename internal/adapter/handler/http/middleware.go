package http

import (
	"net/http"
	"strings"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "bearer"
	authorizationPayloadKey = "authorization_payload"
	authorizationUserKey    = "authorization_user"
)

// AuthMiddleware resolves the bearer token into the caller's identity.
func AuthMiddleware(authService *services.AuthService, logger ports.LoggerPort) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeaderKey)
		fields := strings.Fields(header)
		if len(fields) != 2 || strings.ToLower(fields[0]) != authorizationTypeBearer {
			logger.Warn("Missing or malformed authorization header", map[string]interface{}{
				"ip":   c.ClientIP(),
				"path": c.FullPath(),
			})
			newErrorResponse(c, http.StatusUnauthorized, "Authorization token required")
			return
		}

		payload, user, err := authService.Authenticate(c.Request.Context(), fields[1])
		if err != nil {
			handleError(c, logger, "Authentication failed", err, map[string]interface{}{
				"ip": c.ClientIP(),
			})
			return
		}

		c.Set(authorizationPayloadKey, payload)
		c.Set(authorizationUserKey, user)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles. Must run after AuthMiddleware.
func RequireRole(logger ports.LoggerPort, roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, exists := getAuthPayload(c, authorizationPayloadKey)
		if !exists {
			newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		for _, role := range roles {
			if payload.Role == role {
				c.Next()
				return
			}
		}
		logger.Warn("Role not permitted", map[string]interface{}{
			"user_id": payload.UserID.String(),
			"role":    payload.Role,
			"path":    c.FullPath(),
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
	}
}

func getAuthPayload(c *gin.Context, key string) (*domain.TokenPayload, bool) {
	value, exists := c.Get(key)
	if !exists {
		return nil, false
	}
	payload, ok := value.(*domain.TokenPayload)
	return payload, ok
}

func getAuthUser(c *gin.Context) (*domain.PublicUser, bool) {
	value, exists := c.Get(authorizationUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.PublicUser)
	return user, ok
}

// isSelfOrAdmin reports whether the caller acts on its own record or is an admin.
func isSelfOrAdmin(payload *domain.TokenPayload, userID string) bool {
	return payload.Role == domain.Admin || payload.UserID.String() == userID
}
