package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/property"
)

// PropertyHandler handles property listing requests
type PropertyHandler struct {
	service *property.Service
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(service *property.Service) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// CreatePropertyRequest represents the request body for creating a listing
type CreatePropertyRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Address      string   `json:"address" binding:"required"`
	City         string   `json:"city" binding:"required"`
	State        string   `json:"state" binding:"required,len=2"`
	ZipCode      string   `json:"zip_code"`
	PropertyType string   `json:"property_type" binding:"required"`
	Price        float64  `json:"price" binding:"required,gt=0"`
	ARV          *float64 `json:"arv"`
	RepairCost   *float64 `json:"repair_cost"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    float64  `json:"bathrooms"`
	SquareFeet   int      `json:"square_feet"`
	YearBuilt    *int     `json:"year_built"`
	Images       []string `json:"images"`
}

// Create adds a new draft listing for the authenticated seller
func (h *PropertyHandler) Create(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing := models.Property{
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		PropertyType: req.PropertyType,
		Price:        req.Price,
		ARV:          req.ARV,
		RepairCost:   req.RepairCost,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		SquareFeet:   req.SquareFeet,
		YearBuilt:    req.YearBuilt,
		Images:       models.StringSlice(req.Images),
	}

	if err := h.service.Create(c.Request.Context(), &listing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// Publish moves a draft listing to active
func (h *PropertyHandler) Publish(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	if err := h.service.Publish(propertyID, userID); err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Draft property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish property"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property published"})
}

// Get returns a single listing by id and records the view
func (h *PropertyHandler) Get(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	listing, err := h.service.Get(propertyID)
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load property"})
		return
	}

	h.service.RecordView(listing.ID, viewerID(c))

	c.JSON(http.StatusOK, listing)
}

// GetBySlug returns a single listing by its URL slug and records the view
func (h *PropertyHandler) GetBySlug(c *gin.Context) {
	listing, err := h.service.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load property"})
		return
	}

	h.service.RecordView(listing.ID, viewerID(c))

	c.JSON(http.StatusOK, listing)
}

// Update applies edits to the seller's own listing
func (h *PropertyHandler) Update(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only seller-editable columns pass through.
	allowed := map[string]bool{
		"title": true, "description": true, "price": true, "arv": true,
		"repair_cost": true, "bedrooms": true, "bathrooms": true,
		"square_feet": true, "year_built": true, "images": true, "status": true,
	}
	filtered := make(map[string]interface{})
	for key, value := range updates {
		if allowed[key] {
			filtered[key] = value
		}
	}
	if len(filtered) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	listing, err := h.service.Update(propertyID, userID, filtered)
	if err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Delete removes the seller's own listing
func (h *PropertyHandler) Delete(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	if err := h.service.Delete(propertyID, userID); err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}

// Search lists active properties with filters and pagination
func (h *PropertyHandler) Search(c *gin.Context) {
	params := property.SearchParams{
		City:         c.Query("city"),
		State:        c.Query("state"),
		PropertyType: c.Query("property_type"),
		Page:         queryInt(c, "page", 1),
		PerPage:      queryInt(c, "per_page", 20),
		MinBedrooms:  queryInt(c, "min_bedrooms", 0),
	}
	params.MinPrice, _ = strconv.ParseFloat(c.Query("min_price"), 64)
	params.MaxPrice, _ = strconv.ParseFloat(c.Query("max_price"), 64)

	properties, total, err := h.service.Search(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"total":      total,
		"page":       params.Page,
		"per_page":   params.PerPage,
	})
}

// Export streams the filtered active listings as CSV
func (h *PropertyHandler) Export(c *gin.Context) {
	params := property.SearchParams{
		City:         c.Query("city"),
		State:        c.Query("state"),
		PropertyType: c.Query("property_type"),
		Page:         1,
		PerPage:      100,
	}
	params.MinPrice, _ = strconv.ParseFloat(c.Query("min_price"), 64)
	params.MaxPrice, _ = strconv.ParseFloat(c.Query("max_price"), 64)

	properties, _, err := h.service.Search(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export properties"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="properties.csv"`)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"title", "address", "city", "state", "zip_code", "property_type", "price", "bedrooms", "bathrooms", "square_feet"})
	for _, listing := range properties {
		_ = writer.Write([]string{
			listing.Title,
			listing.Address,
			listing.City,
			listing.State,
			listing.ZipCode,
			listing.PropertyType,
			strconv.FormatFloat(listing.Price, 'f', 2, 64),
			strconv.Itoa(listing.Bedrooms),
			strconv.FormatFloat(listing.Bathrooms, 'f', 1, 64),
			strconv.Itoa(listing.SquareFeet),
		})
	}
	writer.Flush()
}

// MyListings returns the authenticated seller's own listings
func (h *PropertyHandler) MyListings(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	properties, err := h.service.ListByOwner(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load properties"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"properties": properties})
}

// viewerID returns the authenticated user's id, or nil for anonymous views
func viewerID(c *gin.Context) *uuid.UUID {
	value, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

// queryInt parses an integer query parameter with a default
func queryInt(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return value
}
