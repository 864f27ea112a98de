package affiliate

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/utils"
)

// DefaultCommissionRate is applied to new profiles; administrators can
// negotiate a different rate per affiliate.
const DefaultCommissionRate = 0.25

// promoCodeAttempts bounds the retry loop when a generated code collides
const promoCodeAttempts = 5

// PayoutScheduler hands a created payout to the background queue. The funds
// movement itself belongs to the payment provider.
type PayoutScheduler interface {
	SchedulePayout(payoutID uuid.UUID) error
}

// PayoutResult reports what a payout request scheduled
type PayoutResult struct {
	Payout          *models.Payout `json:"payout"`
	CommissionCount int64          `json:"commission_count"`
}

// Service implements the referral attribution engine: tracking first-touch
// referrals, converting them into commissions exactly once, and scheduling
// payouts.
type Service struct {
	store     Store
	scheduler PayoutScheduler
}

// NewService creates a new affiliate service. scheduler may be nil in tests.
func NewService(store Store, scheduler PayoutScheduler) *Service {
	return &Service{store: store, scheduler: scheduler}
}

// Enroll creates an affiliate profile for a user with a fresh promotion code.
// Profiles start unapproved; an administrator reviews them before their codes
// resolve.
func (s *Service) Enroll(userID uuid.UUID, businessType string) (*models.AffiliateProfile, error) {
	if _, err := s.store.ProfileByUser(userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var lastErr error
	for i := 0; i < promoCodeAttempts; i++ {
		profile := &models.AffiliateProfile{
			UserID:         userID,
			BusinessType:   businessType,
			PromoCode:      utils.GeneratePromoCode(),
			CommissionRate: DefaultCommissionRate,
		}
		err := s.store.CreateProfile(profile)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, ErrProfileExists) {
			return nil, err
		}
		// Either the user enrolled concurrently or the code collided.
		if _, lookupErr := s.store.ProfileByUser(userID); lookupErr == nil {
			return nil, ErrProfileExists
		}
		lastErr = err
	}
	return nil, fmt.Errorf("could not allocate promotion code: %w", lastErr)
}

// Approve flips the admin approval flag on a profile
func (s *Service) Approve(profileID uuid.UUID, approved bool) error {
	if err := s.store.SetProfileApproval(profileID, approved); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}

// Profile returns the affiliate profile owned by a user
func (s *Service) Profile(userID uuid.UUID) (*models.AffiliateProfile, error) {
	profile, err := s.store.ProfileByUser(userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

// Referrals lists an affiliate's referrals
func (s *Service) Referrals(affiliateID uuid.UUID) ([]models.Referral, error) {
	return s.store.ReferralsByAffiliate(affiliateID)
}

// Commissions lists an affiliate's commissions
func (s *Service) Commissions(affiliateID uuid.UUID) ([]models.Commission, error) {
	return s.store.CommissionsByAffiliate(affiliateID)
}

// Track records a visitor-to-affiliate association. The first touch wins: a
// visitor who already has a referral keeps it, even when the new code belongs
// to a different affiliate. The unique index on referred_user_id closes the
// race between concurrent first touches.
func (s *Service) Track(promoCode string, visitorID uuid.UUID) (*models.Referral, error) {
	if existing, err := s.store.ReferralByUser(visitorID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	profile, err := s.store.ProfileByCode(promoCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownCode
		}
		return nil, err
	}
	if !profile.Approved {
		return nil, ErrUnknownCode
	}

	referral := &models.Referral{
		AffiliateID:    profile.ID,
		ReferredUserID: visitorID,
		Status:         models.ReferralStatusTracked,
	}
	if err := s.store.CreateReferral(referral); err != nil {
		if !errors.Is(err, ErrAlreadyTracked) {
			return nil, err
		}
		// Lost the insert race. Keep whatever attribution won.
		existing, lookupErr := s.store.ReferralByUser(visitorID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing.AffiliateID == profile.ID {
			return existing, nil
		}
		return nil, ErrAlreadyTracked
	}
	return referral, nil
}

// Convert turns a tracked referral into a commission when the referred user's
// first paid subscription is created. Billing providers deliver this event
// at least once, so the whole mutation is gated on the conditional
// tracked-to-converted transition: the delivery that wins creates the
// commission and bumps earnings, every other delivery returns the existing
// commission untouched. Users without a referral are the common case and
// return (nil, nil).
func (s *Service) Convert(referredUserID uuid.UUID, subscriptionID string, subscriptionAmount float64) (*models.Commission, error) {
	referral, err := s.store.ReferralByUser(referredUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var (
		commission *models.Commission
		won        bool
	)
	err = s.store.Transact(func(tx Store) error {
		var err error
		won, err = tx.MarkReferralConverted(referral.ID, time.Now())
		if err != nil {
			return err
		}
		if !won {
			existing, err := tx.CommissionByReferral(referral.ID)
			if err != nil {
				return err
			}
			commission = existing
			return nil
		}

		profile, err := tx.ProfileByID(referral.AffiliateID)
		if err != nil {
			return err
		}

		amount := roundCents(subscriptionAmount * profile.CommissionRate)
		commission = &models.Commission{
			AffiliateID:    profile.ID,
			ReferralID:     referral.ID,
			SubscriptionID: subscriptionID,
			Amount:         amount,
			Status:         models.CommissionStatusPending,
		}
		if err := tx.CreateCommission(commission); err != nil {
			return err
		}
		return tx.AddEarnings(profile.ID, amount)
	})
	if err != nil {
		return nil, err
	}

	if won {
		log.Printf("Recorded commission %s for affiliate %s (referral %s)",
			commission.ID, commission.AffiliateID, referral.ID)
	}
	return commission, nil
}

// RequestPayout schedules an affiliate's pending commissions for disbursement
// and enqueues the payout job. Funds movement is the payment provider's job.
func (s *Service) RequestPayout(affiliateID uuid.UUID) (*PayoutResult, error) {
	var result PayoutResult
	err := s.store.Transact(func(tx Store) error {
		profile, err := tx.ProfileByID(affiliateID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		commissions, err := tx.CommissionsByAffiliate(profile.ID)
		if err != nil {
			return err
		}
		var total float64
		for _, c := range commissions {
			if c.Status == models.CommissionStatusPending {
				total += c.Amount
			}
		}

		moved, err := tx.ScheduleCommissions(profile.ID)
		if err != nil {
			return err
		}
		if moved == 0 {
			return ErrNothingToPay
		}

		payout := &models.Payout{
			AffiliateID: profile.ID,
			Amount:      roundCents(total),
			Reference:   utils.GenerateReference("PAYOUT"),
		}
		if err := tx.CreatePayout(payout); err != nil {
			return err
		}

		result = PayoutResult{Payout: payout, CommissionCount: moved}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.scheduler != nil {
		if err := s.scheduler.SchedulePayout(result.Payout.ID); err != nil {
			log.Printf("Failed to enqueue payout %s: %v", result.Payout.ID, err)
		}
	}
	return &result, nil
}

// roundCents keeps derived money amounts at two decimal places
func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
