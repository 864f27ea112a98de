package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus represents the listing state of a property
type PropertyStatus string

const (
	PropertyStatusDraft         PropertyStatus = "draft"
	PropertyStatusActive        PropertyStatus = "active"
	PropertyStatusUnderContract PropertyStatus = "under_contract"
	PropertyStatusSold          PropertyStatus = "sold"
)

// Property represents an investment property listing
type Property struct {
	Base
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	Address      string         `gorm:"type:varchar(255);not null" json:"address"`
	City         string         `gorm:"type:varchar(100);not null;index" json:"city"`
	State        string         `gorm:"type:varchar(2);not null;index" json:"state"`
	ZipCode      string         `gorm:"type:varchar(10)" json:"zip_code"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	PropertyType string         `gorm:"type:varchar(50);index" json:"property_type"` // single_family, multi_family, land, commercial
	Price        float64        `gorm:"type:decimal(20,2);not null" json:"price"`
	ARV          *float64       `gorm:"type:decimal(20,2)" json:"arv"`
	RepairCost   *float64       `gorm:"type:decimal(20,2)" json:"repair_cost"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    float64        `gorm:"type:decimal(3,1)" json:"bathrooms"`
	SquareFeet   int            `json:"square_feet"`
	YearBuilt    *int           `json:"year_built"`
	Status       PropertyStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Images       StringSlice    `gorm:"type:jsonb" json:"images"`
	ListedAt     *time.Time     `json:"listed_at"`
}

// PropertyView records a view of a listing, used for seller analytics
type PropertyView struct {
	Base
	PropertyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"property_id"`
	Property   Property   `gorm:"foreignKey:PropertyID" json:"-"`
	ViewerID   *uuid.UUID `gorm:"type:uuid;index" json:"viewer_id"`
}
