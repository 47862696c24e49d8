package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/models"
)

// RequireRoles returns a middleware that allows the request through only
// when the authenticated user's role is in the given set. It must run after
// AuthMiddleware, which stores the role claim in the context.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		role, ok := value.(models.UserRole)
		if !ok || !allowed[role] {
			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Your role does not have access to this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
