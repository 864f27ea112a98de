package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dealbase/backend/internal/handlers"
)

// RegisterWebhookRoutes registers billing provider webhook routes. These sit
// outside the access gate: the provider authenticates with an HMAC signature,
// not a session.
func RegisterWebhookRoutes(router *gin.Engine, webhookHandler *handlers.WebhookHandler) {
	router.POST("/webhooks/billing", webhookHandler.HandleBillingWebhook)
}
