package billing

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/affiliate"
)

var (
	// ErrNoSubscription means the user has no subscription record
	ErrNoSubscription = errors.New("no subscription for user")

	// ErrPlanNotFound means no active plan exists for the requested tier
	ErrPlanNotFound = errors.New("plan not found")
)

// SubscriptionEvent is the provider-neutral shape of a subscription webhook
// event. UserID travels through the provider's metadata, set at checkout.
type SubscriptionEvent struct {
	Type              string                    `json:"type"`
	ProviderID        string                    `json:"provider_id"`
	UserID            uuid.UUID                 `json:"user_id"`
	Tier              models.SubscriptionTier   `json:"tier"`
	Status            models.SubscriptionStatus `json:"status"`
	Amount            float64                   `json:"amount"`
	Currency          string                    `json:"currency"`
	CancelAtPeriodEnd bool                      `json:"cancel_at_period_end"`
	PeriodStart       time.Time                 `json:"period_start"`
	PeriodEnd         time.Time                 `json:"period_end"`
}

// Service handles subscription lifecycle against the payment provider
type Service struct {
	db         *gorm.DB
	provider   Provider
	affiliates *affiliate.Service
}

// NewService creates a new billing service
func NewService(db *gorm.DB, provider Provider, affiliates *affiliate.Service) *Service {
	return &Service{db: db, provider: provider, affiliates: affiliates}
}

// Plans returns the active plan catalog
func (s *Service) Plans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.Where("active = ?", true).Order("monthly_amount ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("error finding plans: %w", err)
	}
	return plans, nil
}

// CurrentSubscription returns the user's subscription
func (s *Service) CurrentSubscription(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.First(&sub, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSubscription
		}
		return nil, fmt.Errorf("error finding subscription: %w", err)
	}
	return &sub, nil
}

// StartCheckout creates a provider-hosted checkout session for a plan tier
func (s *Service) StartCheckout(user *models.User, tier models.SubscriptionTier, successURL, cancelURL string) (*CheckoutSession, error) {
	var plan models.SubscriptionPlan
	if err := s.db.First(&plan, "tier = ? AND active = ?", tier, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("error finding plan: %w", err)
	}

	session, err := s.provider.CreateCheckoutSession(CheckoutRequest{
		CustomerEmail: user.Email,
		PriceID:       plan.ProviderPriceID,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Metadata: map[string]string{
			"user_id": user.ID.String(),
			"tier":    string(plan.Tier),
		},
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Cancel flags the subscription to end at the close of the paid period. The
// user keeps access until then; the gate honors the grace period from the
// token's cancel_at_period_end claim.
func (s *Service) Cancel(userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.CurrentSubscription(userID)
	if err != nil {
		return nil, err
	}

	if err := s.provider.CancelSubscription(sub.ProviderID, true); err != nil {
		return nil, err
	}

	now := time.Now()
	sub.Status = models.SubscriptionStatusCanceled
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if err := s.db.Save(sub).Error; err != nil {
		return nil, fmt.Errorf("error updating subscription: %w", err)
	}
	return sub, nil
}

// HandleEvent applies a provider webhook event. Subscription creation is the
// qualifying event for referral conversion; the attribution engine makes a
// duplicate delivery a no-op, so this handler stays safe under the provider's
// at-least-once retries.
func (s *Service) HandleEvent(event SubscriptionEvent) error {
	switch event.Type {
	case "subscription.created":
		return s.applyCreated(event)
	case "subscription.updated", "subscription.canceled", "invoice.payment_failed":
		return s.applyUpdate(event)
	default:
		log.Printf("Ignoring billing event type %s", event.Type)
		return nil
	}
}

// applyCreated upserts the subscription record and converts any tracked
// referral for the subscriber
func (s *Service) applyCreated(event SubscriptionEvent) error {
	var plan models.SubscriptionPlan
	if err := s.db.First(&plan, "tier = ?", event.Tier).Error; err != nil {
		return fmt.Errorf("error finding plan for tier %s: %w", event.Tier, err)
	}

	sub := models.Subscription{
		UserID:             event.UserID,
		PlanID:             plan.ID,
		Tier:               event.Tier,
		Status:             event.Status,
		Amount:             event.Amount,
		Currency:           event.Currency,
		ProviderID:         event.ProviderID,
		CurrentPeriodStart: event.PeriodStart,
		CurrentPeriodEnd:   event.PeriodEnd,
	}

	// A replayed created event must not insert a second row; match on the
	// provider's subscription id.
	var existing models.Subscription
	err := s.db.First(&existing, "provider_id = ?", event.ProviderID).Error
	switch {
	case err == nil:
		sub.Base = existing.Base
		if err := s.db.Save(&sub).Error; err != nil {
			return fmt.Errorf("error updating subscription: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&sub).Error; err != nil {
			return fmt.Errorf("error creating subscription: %w", err)
		}
	default:
		return fmt.Errorf("error finding subscription: %w", err)
	}

	_, err = s.affiliates.Convert(event.UserID, event.ProviderID, event.Amount)
	if err != nil {
		return fmt.Errorf("error converting referral: %w", err)
	}
	return nil
}

// applyUpdate patches the stored subscription's state from the event
func (s *Service) applyUpdate(event SubscriptionEvent) error {
	updates := map[string]interface{}{
		"status":               event.Status,
		"cancel_at_period_end": event.CancelAtPeriodEnd,
	}
	if !event.PeriodEnd.IsZero() {
		updates["current_period_start"] = event.PeriodStart
		updates["current_period_end"] = event.PeriodEnd
	}

	result := s.db.Model(&models.Subscription{}).
		Where("provider_id = ?", event.ProviderID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("error updating subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no subscription with provider id %s", event.ProviderID)
	}
	return nil
}
