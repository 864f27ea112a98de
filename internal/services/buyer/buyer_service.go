package buyer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
)

var (
	// ErrNotFound means no cash buyer matched the lookup
	ErrNotFound = errors.New("cash buyer not found")

	// ErrIntroExists means an introduction was already requested for this pair
	ErrIntroExists = errors.New("introduction already requested")
)

// Service handles the cash-buyer directory and matching
type Service struct {
	db *gorm.DB
}

// NewService creates a new buyer service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Upsert creates or updates the user's buyer profile
func (s *Service) Upsert(buyer *models.CashBuyer) (*models.CashBuyer, error) {
	var existing models.CashBuyer
	err := s.db.First(&existing, "user_id = ?", buyer.UserID).Error
	switch {
	case err == nil:
		buyer.Base = existing.Base
		buyer.Verified = existing.Verified
		if err := s.db.Save(buyer).Error; err != nil {
			return nil, fmt.Errorf("error updating cash buyer: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(buyer).Error; err != nil {
			return nil, fmt.Errorf("error creating cash buyer: %w", err)
		}
	default:
		return nil, fmt.Errorf("error finding cash buyer: %w", err)
	}
	return buyer, nil
}

// Get fetches a buyer by id
func (s *Service) Get(id uuid.UUID) (*models.CashBuyer, error) {
	var buyer models.CashBuyer
	if err := s.db.First(&buyer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding cash buyer: %w", err)
	}
	return &buyer, nil
}

// List returns verified buyers, most recently active first
func (s *Service) List(state string, page, perPage int) ([]models.CashBuyer, int64, error) {
	query := s.db.Model(&models.CashBuyer{}).Where("verified = ?", true)
	if state != "" {
		query = query.Where("states @> to_jsonb(?::text)", state)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting cash buyers: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var buyers []models.CashBuyer
	if err := query.Order("last_active_at DESC NULLS LAST").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&buyers).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing cash buyers: %w", err)
	}
	return buyers, total, nil
}

// Match finds verified buyers whose criteria fit the property: covered
// state or city, price inside the buyer's band, and matching property type
// when the buyer declared one.
func (s *Service) Match(property *models.Property) ([]models.CashBuyer, error) {
	query := s.db.Model(&models.CashBuyer{}).
		Where("verified = ?", true).
		Where("states @> to_jsonb(?::text) OR cities @> to_jsonb(?::text)", property.State, property.City).
		Where("min_price <= ?", property.Price).
		Where("max_price = 0 OR max_price >= ?", property.Price)

	if property.PropertyType != "" {
		query = query.Where("property_types IS NULL OR property_types @> to_jsonb(?::text)", property.PropertyType)
	}

	var buyers []models.CashBuyer
	if err := query.Order("last_active_at DESC NULLS LAST").Limit(50).Find(&buyers).Error; err != nil {
		return nil, fmt.Errorf("error matching cash buyers: %w", err)
	}
	return buyers, nil
}

// RequestIntro records an introduction between a property and a buyer. The
// unique index on (property, buyer) keeps repeat requests out.
func (s *Service) RequestIntro(propertyID, buyerID, requestedBy uuid.UUID, message string) (*models.BuyerIntro, error) {
	intro := &models.BuyerIntro{
		PropertyID:  propertyID,
		CashBuyerID: buyerID,
		RequestedBy: requestedBy,
		Message:     message,
	}
	if err := s.db.Create(intro).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrIntroExists
		}
		return nil, fmt.Errorf("error creating introduction: %w", err)
	}
	return intro, nil
}

// TouchActivity stamps the buyer's last-active time
func (s *Service) TouchActivity(userID uuid.UUID) {
	now := time.Now()
	s.db.Model(&models.CashBuyer{}).Where("user_id = ?", userID).Update("last_active_at", now)
}
