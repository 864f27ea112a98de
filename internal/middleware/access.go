package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/dealbase/backend/internal/access"
)

// AccessGateMiddleware runs every request through the access gate before
// route dispatch. The gate reads nothing but the session token already on
// the context, so this adds no database round-trip to the request path.
func AccessGateMiddleware(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := gate.Evaluate(c.Request.URL.Path, TokenFromContext(c))

		switch decision.Kind {
		case access.Allow:
			c.Next()
		case access.DenyUnauthenticated:
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Authentication required",
				"continue": "/login?next=" + url.QueryEscape(decision.ContinuePath),
			})
			c.Abort()
		case access.DenyNoSubscription:
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":          "Active subscription required",
				"required_level": decision.RequiredLevel,
			})
			c.Abort()
		case access.DenyInsufficientTier:
			c.JSON(http.StatusForbidden, gin.H{
				"error":          "Plan upgrade required",
				"required_level": decision.RequiredLevel,
			})
			c.Abort()
		}
	}
}
