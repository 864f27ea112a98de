package models

import (
	"time"

	"github.com/google/uuid"
)

// CashBuyer represents an investor in the cash-buyer directory
type CashBuyer struct {
	Base
	UserID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"-"`
	CompanyName   string      `gorm:"type:varchar(255)" json:"company_name"`
	ContactEmail  string      `gorm:"type:varchar(255);not null" json:"contact_email"`
	ContactPhone  string      `gorm:"type:varchar(20)" json:"contact_phone"`
	Cities        StringSlice `gorm:"type:jsonb" json:"cities"`
	States        StringSlice `gorm:"type:jsonb" json:"states"`
	PropertyTypes StringSlice `gorm:"type:jsonb" json:"property_types"`
	MinPrice      float64     `gorm:"type:decimal(20,2);default:0" json:"min_price"`
	MaxPrice      float64     `gorm:"type:decimal(20,2);default:0" json:"max_price"`
	ProofOfFunds  bool        `gorm:"default:false" json:"proof_of_funds"`
	Verified      bool        `gorm:"default:false" json:"verified"`
	LastActiveAt  *time.Time  `json:"last_active_at"`
}

// BuyerIntro records an introduction between a seller's property and a buyer
type BuyerIntro struct {
	Base
	PropertyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_buyer_intro,unique" json:"property_id"`
	Property    Property  `gorm:"foreignKey:PropertyID" json:"-"`
	CashBuyerID uuid.UUID `gorm:"type:uuid;not null;index:idx_buyer_intro,unique" json:"cash_buyer_id"`
	CashBuyer   CashBuyer `gorm:"foreignKey:CashBuyerID" json:"-"`
	RequestedBy uuid.UUID `gorm:"type:uuid;not null" json:"requested_by"`
	Message     string    `gorm:"type:text" json:"message"`
}
