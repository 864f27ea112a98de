package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier represents the plan tier a subscriber is on
type SubscriptionTier string

const (
	TierStarter    SubscriptionTier = "starter"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
)

// SubscriptionPlan represents a purchasable plan in the catalog
type SubscriptionPlan struct {
	Base
	Name            string           `gorm:"type:varchar(100);not null" json:"name"`
	Tier            SubscriptionTier `gorm:"type:varchar(20);not null;uniqueIndex" json:"tier"`
	Description     string           `gorm:"type:text" json:"description"`
	MonthlyAmount   float64          `gorm:"type:decimal(20,2);not null" json:"monthly_amount"`
	Currency        string           `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	ProviderPriceID string           `gorm:"type:varchar(255)" json:"provider_price_id"`
	Features        StringSlice      `gorm:"type:jsonb" json:"features"`
	Active          bool             `gorm:"default:true" json:"active"`
}

// Subscription represents a user's subscription to a plan
type Subscription struct {
	Base
	UserID             uuid.UUID          `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User               User               `gorm:"foreignKey:UserID" json:"-"`
	PlanID             uuid.UUID          `gorm:"type:uuid;index" json:"plan_id"`
	Plan               SubscriptionPlan   `gorm:"foreignKey:PlanID" json:"-"`
	Tier               SubscriptionTier   `gorm:"type:varchar(20);not null" json:"tier"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Amount             float64            `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency           string             `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	ProviderID         string             `gorm:"type:varchar(255);uniqueIndex" json:"provider_id"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd  bool               `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt         *time.Time         `json:"canceled_at"`
}

// HasAccess reports whether the subscription currently grants paid access.
// A canceled subscription keeps access through the remainder of the paid
// period when cancel_at_period_end is set.
func (s *Subscription) HasAccess() bool {
	if s.Status == SubscriptionStatusActive {
		return true
	}
	return s.Status == SubscriptionStatusCanceled && s.CancelAtPeriodEnd
}
