// auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"storefront-order-service/internal/model"
	"storefront-order-service/internal/service"

	"github.com/gin-gonic/gin"
)

// Claves del contexto de gin que setea AuthMiddleware.
const (
	KeyUserID          = "userID"
	KeyUserPermissions = "userPermissions"
	KeyActor           = "actor"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*service.AuthUser, error)
}

// Middleware que valida el token y guarda la info del usuario en el contexto
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if !authenticate(c, auth, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth deja pasar requests sin token (invitados); si viene un token,
// tiene que ser válido y la identidad queda en el contexto igual que con
// AuthMiddleware.
func OptionalAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !authenticate(c, auth, authHeader) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, auth TokenValidator, authHeader string) bool {
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	user, err := auth.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return false
	}

	c.Set(KeyUserID, user.ID)
	c.Set(KeyUserPermissions, user.Permissions)
	c.Set(KeyActor, user.Actor())
	return true
}

// ActorFrom devuelve la identidad que dejó AuthMiddleware.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(KeyActor)
	if !ok {
		return model.Actor{}, false
	}
	a, ok := v.(model.Actor)
	return a, ok
}
