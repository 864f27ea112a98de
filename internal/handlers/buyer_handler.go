package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/buyer"
	"github.com/dealbase/backend/internal/services/property"
)

// BuyerHandler handles cash-buyer directory requests
type BuyerHandler struct {
	buyers     *buyer.Service
	properties *property.Service
}

// NewBuyerHandler creates a new buyer handler
func NewBuyerHandler(buyers *buyer.Service, properties *property.Service) *BuyerHandler {
	return &BuyerHandler{buyers: buyers, properties: properties}
}

// BuyerProfileRequest represents the request body for a buyer profile
type BuyerProfileRequest struct {
	CompanyName   string   `json:"company_name"`
	ContactEmail  string   `json:"contact_email" binding:"required,email"`
	ContactPhone  string   `json:"contact_phone"`
	Cities        []string `json:"cities"`
	States        []string `json:"states" binding:"required,min=1"`
	PropertyTypes []string `json:"property_types"`
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
	ProofOfFunds  bool     `json:"proof_of_funds"`
}

// UpsertProfile creates or updates the authenticated user's buyer profile
func (h *BuyerHandler) UpsertProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req BuyerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.buyers.Upsert(&models.CashBuyer{
		UserID:        userID,
		CompanyName:   req.CompanyName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		Cities:        models.StringSlice(req.Cities),
		States:        models.StringSlice(req.States),
		PropertyTypes: models.StringSlice(req.PropertyTypes),
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		ProofOfFunds:  req.ProofOfFunds,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save buyer profile"})
		return
	}

	h.buyers.TouchActivity(userID)

	c.JSON(http.StatusOK, profile)
}

// List returns verified buyers, optionally filtered by state
func (h *BuyerHandler) List(c *gin.Context) {
	buyers, total, err := h.buyers.List(c.Query("state"), queryInt(c, "page", 1), queryInt(c, "per_page", 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cash buyers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"buyers": buyers, "total": total})
}

// Match returns verified buyers whose criteria fit one of the seller's listings
func (h *BuyerHandler) Match(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	listing, err := h.properties.Get(propertyID)
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load property"})
		return
	}
	if listing.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your listing"})
		return
	}

	buyers, err := h.buyers.Match(listing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match buyers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"buyers": buyers})
}

// IntroRequest represents the request body for a buyer introduction
type IntroRequest struct {
	PropertyID  uuid.UUID `json:"property_id" binding:"required"`
	CashBuyerID uuid.UUID `json:"cash_buyer_id" binding:"required"`
	Message     string    `json:"message"`
}

// RequestIntro records an introduction between a listing and a buyer
func (h *BuyerHandler) RequestIntro(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req IntroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.properties.Get(req.PropertyID)
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load property"})
		return
	}
	if listing.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your listing"})
		return
	}

	if _, err := h.buyers.Get(req.CashBuyerID); err != nil {
		if errors.Is(err, buyer.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cash buyer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cash buyer"})
		return
	}

	intro, err := h.buyers.RequestIntro(req.PropertyID, req.CashBuyerID, userID, req.Message)
	if err != nil {
		if errors.Is(err, buyer.ErrIntroExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Introduction already requested"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request introduction"})
		return
	}

	c.JSON(http.StatusCreated, intro)
}
