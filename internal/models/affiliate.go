package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReferralStatus represents the lifecycle state of a referral
type ReferralStatus string

const (
	ReferralStatusTracked   ReferralStatus = "tracked"
	ReferralStatusConverted ReferralStatus = "converted"
)

// CommissionStatus represents the payout state of a commission
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusScheduled CommissionStatus = "scheduled"
	CommissionStatusPaid      CommissionStatus = "paid"
)

// AffiliateProfile represents a user enrolled in the referral program
type AffiliateProfile struct {
	Base
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"-"`
	BusinessType   string    `gorm:"type:varchar(100)" json:"business_type"`
	PromoCode      string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"promo_code"`
	CommissionRate float64   `gorm:"type:decimal(5,4);not null" json:"commission_rate"`
	TotalEarnings  float64   `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`
	Approved       bool      `gorm:"default:false" json:"approved"`
}

// ReferralLink returns the shareable signup URL for the profile's promo code
func (p *AffiliateProfile) ReferralLink(baseURL string) string {
	return fmt.Sprintf("%s/signup?ref=%s", baseURL, p.PromoCode)
}

// Referral represents a tracked visitor-to-affiliate association.
// The unique index on referred_user_id guarantees a user can never be
// attributed to two affiliates at once.
type Referral struct {
	Base
	AffiliateID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"affiliate_id"`
	Affiliate      AffiliateProfile `gorm:"foreignKey:AffiliateID" json:"-"`
	ReferredUserID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"referred_user_id"`
	Status         ReferralStatus   `gorm:"type:varchar(20);not null;default:'tracked'" json:"status"`
	ConvertedAt    *time.Time       `json:"converted_at"`
}

// Commission represents money owed to an affiliate for one conversion.
// The unique index on referral_id enforces at most one commission per referral.
type Commission struct {
	Base
	AffiliateID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"affiliate_id"`
	Affiliate      AffiliateProfile `gorm:"foreignKey:AffiliateID" json:"-"`
	ReferralID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"referral_id"`
	Referral       Referral         `gorm:"foreignKey:ReferralID" json:"-"`
	SubscriptionID string           `gorm:"type:varchar(255);not null" json:"subscription_id"`
	Amount         float64          `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency       string           `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status         CommissionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaidAt         *time.Time       `json:"paid_at"`
}

// Payout represents a batch of scheduled commissions handed to the payment
// provider for disbursement
type Payout struct {
	Base
	AffiliateID uuid.UUID        `gorm:"type:uuid;not null;index" json:"affiliate_id"`
	Affiliate   AffiliateProfile `gorm:"foreignKey:AffiliateID" json:"-"`
	Amount      float64          `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency    string           `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Reference   string           `gorm:"type:varchar(64);uniqueIndex" json:"reference"`
	Status      string           `gorm:"type:varchar(20);not null;default:'processing'" json:"status"`
	CompletedAt *time.Time       `json:"completed_at"`
}
