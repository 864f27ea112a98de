package property

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/geo"
)

// ErrNotFound means no property matched the lookup
var ErrNotFound = errors.New("property not found")

// SearchParams are the supported listing filters
type SearchParams struct {
	City         string
	State        string
	PropertyType string
	MinPrice     float64
	MaxPrice     float64
	MinBedrooms  int
	Status       models.PropertyStatus
	Page         int
	PerPage      int
}

// Service handles property listings and search
type Service struct {
	db       *gorm.DB
	geocoder geo.Geocoder
}

// NewService creates a new property service
func NewService(db *gorm.DB, geocoder geo.Geocoder) *Service {
	return &Service{db: db, geocoder: geocoder}
}

// Create saves a new listing in draft state. Geocoding failures are not
// fatal: the listing goes in without coordinates and the map pin is absent.
func (s *Service) Create(ctx context.Context, property *models.Property) error {
	property.Slug = s.uniqueSlug(property.Title)
	property.Status = models.PropertyStatusDraft

	if s.geocoder != nil {
		address := fmt.Sprintf("%s, %s, %s %s", property.Address, property.City, property.State, property.ZipCode)
		loc, err := s.geocoder.Geocode(ctx, address)
		if err != nil {
			log.Printf("Geocoding failed for property %q: %v", property.Title, err)
		} else {
			property.Latitude = &loc.Latitude
			property.Longitude = &loc.Longitude
		}
	}

	if err := s.db.Create(property).Error; err != nil {
		return fmt.Errorf("error creating property: %w", err)
	}
	return nil
}

// uniqueSlug derives a URL slug from the title, suffixed when taken
func (s *Service) uniqueSlug(title string) string {
	base := slug.Make(title)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		s.db.Model(&models.Property{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Publish moves a draft listing to active
func (s *Service) Publish(propertyID, ownerID uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Property{}).
		Where("id = ? AND user_id = ? AND status = ?", propertyID, ownerID, models.PropertyStatusDraft).
		Updates(map[string]interface{}{
			"status":    models.PropertyStatusActive,
			"listed_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("error publishing property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a property by id
func (s *Service) Get(id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := s.db.First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding property: %w", err)
	}
	return &property, nil
}

// GetBySlug fetches a property by its URL slug
func (s *Service) GetBySlug(propertySlug string) (*models.Property, error) {
	var property models.Property
	if err := s.db.First(&property, "slug = ?", propertySlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding property: %w", err)
	}
	return &property, nil
}

// Update applies owner edits to a listing
func (s *Service) Update(propertyID, ownerID uuid.UUID, updates map[string]interface{}) (*models.Property, error) {
	result := s.db.Model(&models.Property{}).
		Where("id = ? AND user_id = ?", propertyID, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("error updating property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(propertyID)
}

// Delete removes a listing (soft delete)
func (s *Service) Delete(propertyID, ownerID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", propertyID, ownerID).Delete(&models.Property{})
	if result.Error != nil {
		return fmt.Errorf("error deleting property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search runs a filtered, paginated listing query
func (s *Service) Search(params SearchParams) ([]models.Property, int64, error) {
	query := s.db.Model(&models.Property{})

	status := params.Status
	if status == "" {
		status = models.PropertyStatusActive
	}
	query = query.Where("status = ?", status)

	if params.City != "" {
		query = query.Where("city ILIKE ?", params.City)
	}
	if params.State != "" {
		query = query.Where("state = ?", params.State)
	}
	if params.PropertyType != "" {
		query = query.Where("property_type = ?", params.PropertyType)
	}
	if params.MinPrice > 0 {
		query = query.Where("price >= ?", params.MinPrice)
	}
	if params.MaxPrice > 0 {
		query = query.Where("price <= ?", params.MaxPrice)
	}
	if params.MinBedrooms > 0 {
		query = query.Where("bedrooms >= ?", params.MinBedrooms)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting properties: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	perPage := params.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var properties []models.Property
	if err := query.Order("listed_at DESC NULLS LAST").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("error searching properties: %w", err)
	}
	return properties, total, nil
}

// ListByOwner returns all of a seller's listings
func (s *Service) ListByOwner(ownerID uuid.UUID) ([]models.Property, error) {
	var properties []models.Property
	if err := s.db.Where("user_id = ?", ownerID).Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("error finding properties: %w", err)
	}
	return properties, nil
}

// RecordView logs a listing view for seller analytics
func (s *Service) RecordView(propertyID uuid.UUID, viewerID *uuid.UUID) {
	view := models.PropertyView{PropertyID: propertyID, ViewerID: viewerID}
	if err := s.db.Create(&view).Error; err != nil {
		log.Printf("Failed to record property view: %v", err)
	}
}
