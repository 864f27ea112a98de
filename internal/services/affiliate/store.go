package affiliate

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
)

// Store is the persistence surface the attribution engine needs. The
// conditional transition in MarkReferralConverted is the linearization point
// for conversion: implementations must guarantee that exactly one caller
// observes won=true per referral.
type Store interface {
	CreateProfile(profile *models.AffiliateProfile) error
	ProfileByID(id uuid.UUID) (*models.AffiliateProfile, error)
	ProfileByUser(userID uuid.UUID) (*models.AffiliateProfile, error)
	ProfileByCode(code string) (*models.AffiliateProfile, error)
	SetProfileApproval(id uuid.UUID, approved bool) error
	AddEarnings(id uuid.UUID, amount float64) error

	CreateReferral(referral *models.Referral) error
	ReferralByUser(userID uuid.UUID) (*models.Referral, error)
	ReferralsByAffiliate(affiliateID uuid.UUID) ([]models.Referral, error)
	// MarkReferralConverted transitions the referral from tracked to converted
	// and reports whether this call won the transition.
	MarkReferralConverted(id uuid.UUID, at time.Time) (bool, error)

	CreateCommission(commission *models.Commission) error
	CommissionByReferral(referralID uuid.UUID) (*models.Commission, error)
	CommissionsByAffiliate(affiliateID uuid.UUID) ([]models.Commission, error)
	// ScheduleCommissions flips the affiliate's pending commissions to
	// scheduled and returns how many rows moved.
	ScheduleCommissions(affiliateID uuid.UUID) (int64, error)

	CreatePayout(payout *models.Payout) error

	// Transact runs fn against a store bound to one database transaction;
	// any error rolls the whole transaction back.
	Transact(fn func(tx Store) error) error
}

// GormStore implements Store on a gorm connection
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateProfile inserts a new affiliate profile
func (s *GormStore) CreateProfile(profile *models.AffiliateProfile) error {
	if err := s.db.Create(profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrProfileExists
		}
		return fmt.Errorf("error creating affiliate profile: %w", err)
	}
	return nil
}

// ProfileByID fetches a profile by primary key
func (s *GormStore) ProfileByID(id uuid.UUID) (*models.AffiliateProfile, error) {
	var profile models.AffiliateProfile
	if err := s.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding affiliate profile: %w", err)
	}
	return &profile, nil
}

// ProfileByUser fetches the profile owned by a user
func (s *GormStore) ProfileByUser(userID uuid.UUID) (*models.AffiliateProfile, error) {
	var profile models.AffiliateProfile
	if err := s.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding affiliate profile: %w", err)
	}
	return &profile, nil
}

// ProfileByCode fetches a profile by its promotion code
func (s *GormStore) ProfileByCode(code string) (*models.AffiliateProfile, error) {
	var profile models.AffiliateProfile
	if err := s.db.First(&profile, "promo_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding affiliate profile: %w", err)
	}
	return &profile, nil
}

// SetProfileApproval flips the admin approval flag
func (s *GormStore) SetProfileApproval(id uuid.UUID, approved bool) error {
	result := s.db.Model(&models.AffiliateProfile{}).Where("id = ?", id).Update("approved", approved)
	if result.Error != nil {
		return fmt.Errorf("error updating affiliate approval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEarnings increments the profile's cumulative earnings
func (s *GormStore) AddEarnings(id uuid.UUID, amount float64) error {
	result := s.db.Model(&models.AffiliateProfile{}).Where("id = ?", id).
		Update("total_earnings", gorm.Expr("total_earnings + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("error updating affiliate earnings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateReferral inserts a referral; the unique index on referred_user_id
// turns a concurrent duplicate into ErrAlreadyTracked
func (s *GormStore) CreateReferral(referral *models.Referral) error {
	if err := s.db.Create(referral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyTracked
		}
		return fmt.Errorf("error creating referral: %w", err)
	}
	return nil
}

// ReferralByUser fetches the referral for a referred user
func (s *GormStore) ReferralByUser(userID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	if err := s.db.First(&referral, "referred_user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding referral: %w", err)
	}
	return &referral, nil
}

// ReferralsByAffiliate lists an affiliate's referrals, newest first
func (s *GormStore) ReferralsByAffiliate(affiliateID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	if err := s.db.Where("affiliate_id = ?", affiliateID).
		Order("created_at DESC").Find(&referrals).Error; err != nil {
		return nil, fmt.Errorf("error finding referrals: %w", err)
	}
	return referrals, nil
}

// MarkReferralConverted performs the conditional transition. The WHERE clause
// on status makes the update the race arbiter: only one of two concurrent
// deliveries sees RowsAffected == 1.
func (s *GormStore) MarkReferralConverted(id uuid.UUID, at time.Time) (bool, error) {
	result := s.db.Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, models.ReferralStatusTracked).
		Updates(map[string]interface{}{
			"status":       models.ReferralStatusConverted,
			"converted_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("error converting referral: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// CreateCommission inserts a commission record
func (s *GormStore) CreateCommission(commission *models.Commission) error {
	if err := s.db.Create(commission).Error; err != nil {
		return fmt.Errorf("error creating commission: %w", err)
	}
	return nil
}

// CommissionByReferral fetches the commission created for a referral
func (s *GormStore) CommissionByReferral(referralID uuid.UUID) (*models.Commission, error) {
	var commission models.Commission
	if err := s.db.First(&commission, "referral_id = ?", referralID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding commission: %w", err)
	}
	return &commission, nil
}

// CommissionsByAffiliate lists an affiliate's commissions, newest first
func (s *GormStore) CommissionsByAffiliate(affiliateID uuid.UUID) ([]models.Commission, error) {
	var commissions []models.Commission
	if err := s.db.Where("affiliate_id = ?", affiliateID).
		Order("created_at DESC").Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("error finding commissions: %w", err)
	}
	return commissions, nil
}

// ScheduleCommissions moves all pending commissions for the affiliate into
// the scheduled state
func (s *GormStore) ScheduleCommissions(affiliateID uuid.UUID) (int64, error) {
	result := s.db.Model(&models.Commission{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, models.CommissionStatusPending).
		Update("status", models.CommissionStatusScheduled)
	if result.Error != nil {
		return 0, fmt.Errorf("error scheduling commissions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CreatePayout inserts a payout record
func (s *GormStore) CreatePayout(payout *models.Payout) error {
	if err := s.db.Create(payout).Error; err != nil {
		return fmt.Errorf("error creating payout: %w", err)
	}
	return nil
}

// Transact runs fn inside a database transaction
func (s *GormStore) Transact(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
