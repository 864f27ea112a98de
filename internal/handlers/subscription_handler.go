package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/billing"
)

// SubscriptionHandler handles subscription plan and checkout requests
type SubscriptionHandler struct {
	db      *gorm.DB
	billing *billing.Service
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(db *gorm.DB, billingService *billing.Service) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, billing: billingService}
}

// Plans returns the active subscription plan catalog
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	plans, err := h.billing.Plans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// Current returns the authenticated user's subscription
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	sub, err := h.billing.CurrentSubscription(userID)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			c.JSON(http.StatusOK, gin.H{"subscription": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// CheckoutRequest represents the request body for starting a checkout
type CheckoutRequest struct {
	Tier       models.SubscriptionTier `json:"tier" binding:"required"`
	SuccessURL string                  `json:"success_url" binding:"required,url"`
	CancelURL  string                  `json:"cancel_url" binding:"required,url"`
}

// Checkout starts a provider-hosted checkout session for a plan tier
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	session, err := h.billing.StartCheckout(&user, req.Tier, req.SuccessURL, req.CancelURL)
	if err != nil {
		if errors.Is(err, billing.ErrPlanNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan tier"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start checkout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": session.URL, "session_id": session.ID})
}

// Cancel flags the subscription to end at the close of the paid period
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	sub, err := h.billing.Cancel(userID)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No subscription to cancel"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"message":      "Subscription will end at the close of the current period",
	})
}
