package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"tutorly/config"
	"tutorly/models"
	"tutorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxActorID   = "actorID"
	ctxActorRole = "actorRole"
)

// JWTAuthMiddleware accepts a bearer JWT whose role is one of roles.
// The static ADMIN_TOKEN, when configured, authenticates as admin.
func JWTAuthMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		if isAdminToken(tokenString) {
			if !slices.Contains(roles, utils.RoleAdmin) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admins cannot use this endpoint"})
				return
			}
			SetActor(c, models.Actor{ID: "admin", Role: utils.RoleAdmin})
			c.Next()
			return
		}

		claims, err := utils.ParseClaims(tokenString)
		if err != nil {
			utils.GetLogger().Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if !slices.Contains(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}

		SetActor(c, models.Actor{ID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

func isAdminToken(token string) bool {
	admin := config.AppConfig.AdminToken
	return admin != "" && subtle.ConstantTimeCompare([]byte(token), []byte(admin)) == 1
}

// SetActor records the authenticated caller on the request.
func SetActor(c *gin.Context, a models.Actor) {
	c.Set(ctxActorID, a.ID)
	c.Set(ctxActorRole, a.Role)
}

// ActorFromContext returns the caller authenticated by JWTAuthMiddleware.
func ActorFromContext(c *gin.Context) models.Actor {
	return models.Actor{ID: c.GetString(ctxActorID), Role: c.GetString(ctxActorRole)}
}
