package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/affiliate"
)

// AffiliateHandler handles referral program requests
type AffiliateHandler struct {
	service     *affiliate.Service
	frontendURL string
}

// NewAffiliateHandler creates a new affiliate handler
func NewAffiliateHandler(service *affiliate.Service, frontendURL string) *AffiliateHandler {
	return &AffiliateHandler{service: service, frontendURL: frontendURL}
}

// EnrollRequest represents the request body for affiliate enrollment
type EnrollRequest struct {
	BusinessType string `json:"business_type" binding:"required"`
}

// Enroll signs the authenticated user up for the referral program
func (h *AffiliateHandler) Enroll(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.Enroll(userID, req.BusinessType)
	if err != nil {
		if errors.Is(err, affiliate.ErrProfileExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already enrolled in the referral program"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"profile":       profile,
		"referral_link": profile.ReferralLink(h.frontendURL),
	})
}

// Dashboard returns the affiliate's profile, referrals and commissions
func (h *AffiliateHandler) Dashboard(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	profile, err := h.service.Profile(userID)
	if err != nil {
		if errors.Is(err, affiliate.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not enrolled in the referral program"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	referrals, err := h.service.Referrals(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load referrals"})
		return
	}

	commissions, err := h.service.Commissions(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load commissions"})
		return
	}

	var pendingTotal float64
	for _, commission := range commissions {
		if commission.Status == models.CommissionStatusPending {
			pendingTotal += commission.Amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":       profile,
		"referral_link": profile.ReferralLink(h.frontendURL),
		"referrals":     referrals,
		"commissions":   commissions,
		"pending_total": pendingTotal,
	})
}

// RequestPayout schedules the affiliate's pending commissions for payout
func (h *AffiliateHandler) RequestPayout(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	profile, err := h.service.Profile(userID)
	if err != nil {
		if errors.Is(err, affiliate.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not enrolled in the referral program"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	result, err := h.service.RequestPayout(profile.ID)
	if err != nil {
		if errors.Is(err, affiliate.ErrNothingToPay) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No pending commissions to pay out"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request payout"})
		return
	}

	c.JSON(http.StatusAccepted, result)
}

// ApproveRequest represents the admin approval request body
type ApproveRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// Approve lets an administrator approve or revoke an affiliate profile
func (h *AffiliateHandler) Approve(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Approve(profileID, *req.Approved); err != nil {
		if errors.Is(err, affiliate.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
