package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealbase/backend/internal/access"
	"github.com/dealbase/backend/internal/utils"
)

// ContextKeyToken is where the decoded session token lives in the gin context
const ContextKeyToken = "session_token"

// SessionMiddleware decodes the bearer token, when present, into an
// access.Token and stores it on the context. It never rejects: the access
// gate decides what an absent or expired session means for each route.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			// Invalid tokens are treated as no session at all.
			c.Next()
			return
		}

		c.Set(ContextKeyToken, &access.Token{
			Subject:           claims.UserID.String(),
			Tier:              claims.Tier,
			Status:            claims.SubscriptionState,
			CancelAtPeriodEnd: claims.CancelAtPeriodEnd,
		})
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

// AuthMiddleware requires a valid session and rejects the request otherwise
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminMiddleware ensures the user has admin privileges
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("is_admin")
		if !exists || !isAdmin.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// TokenFromContext returns the decoded session token, or nil when the
// request carries no valid session
func TokenFromContext(c *gin.Context) *access.Token {
	value, exists := c.Get(ContextKeyToken)
	if !exists {
		return nil
	}
	token, ok := value.(*access.Token)
	if !ok {
		return nil
	}
	return token
}

// extractToken gets the token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	parts := strings.Split(bearerToken, " ")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}
