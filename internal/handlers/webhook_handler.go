package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealbase/backend/internal/services/billing"
	"github.com/dealbase/backend/internal/utils"
)

// SignatureHeader carries the provider's HMAC signature of the raw body
const SignatureHeader = "X-Webhook-Signature"

// EventSink applies a verified billing event
type EventSink interface {
	HandleEvent(event billing.SubscriptionEvent) error
}

// WebhookHandler receives billing provider webhooks
type WebhookHandler struct {
	sink   EventSink
	secret string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(sink EventSink, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{sink: sink, secret: webhookSecret}
}

// HandleBillingWebhook verifies the signature over the raw body and applies
// the event. Failures return 500 so the provider retries the delivery; the
// attribution engine keeps those retries idempotent.
func (h *WebhookHandler) HandleBillingWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" || !utils.VerifyHMAC(string(body), signature, h.secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var event billing.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	if err := h.sink.HandleEvent(event); err != nil {
		log.Printf("Failed to process billing event %s (%s): %v", event.Type, event.ProviderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
