package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/queue"
	"github.com/dealbase/backend/internal/services/billing"
)

// PayoutJobPayload represents the payload for a payout job
type PayoutJobPayload struct {
	PayoutID uuid.UUID `json:"payout_id"`
}

// PayoutJob hands scheduled payouts to the payment provider
type PayoutJob struct {
	db       *gorm.DB
	provider billing.Provider
}

// NewPayoutJob creates a new payout job handler
func NewPayoutJob(db *gorm.DB, provider billing.Provider) *PayoutJob {
	return &PayoutJob{db: db, provider: provider}
}

// PayoutScheduler enqueues payout jobs; it is what the affiliate service
// calls after scheduling commissions.
type PayoutScheduler struct {
	queue queue.QueueInterface
}

// NewPayoutScheduler creates a scheduler bound to the queue
func NewPayoutScheduler(q queue.QueueInterface) *PayoutScheduler {
	return &PayoutScheduler{queue: q}
}

// SchedulePayout enqueues processing for a created payout
func (s *PayoutScheduler) SchedulePayout(payoutID uuid.UUID) error {
	_, err := s.queue.EnqueueJob(queue.JobTypeProcessPayout, PayoutJobPayload{PayoutID: payoutID})
	return err
}

// Process transfers the payout and marks its commissions paid. The transfer
// reference doubles as the provider-side idempotency key, so a retried job
// cannot double-pay.
func (j *PayoutJob) Process(ctx context.Context, job queue.Job) (interface{}, error) {
	var payload PayoutJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payout job payload: %w", err)
	}

	var payout models.Payout
	if err := j.db.First(&payout, "id = ?", payload.PayoutID).Error; err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	if payout.Status != "processing" {
		log.Printf("Payout %s already %s, skipping", payout.ID, payout.Status)
		return nil, nil
	}

	result, err := j.provider.CreateTransfer(billing.TransferRequest{
		Amount:      payout.Amount,
		Currency:    payout.Currency,
		Reference:   payout.Reference,
		Destination: payout.AffiliateID.String(),
		Metadata:    map[string]string{"payout_id": payout.ID.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	now := time.Now()
	err = j.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payout).Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update payout: %w", err)
		}

		if err := tx.Model(&models.Commission{}).
			Where("affiliate_id = ? AND status = ?", payout.AffiliateID, models.CommissionStatusScheduled).
			Updates(map[string]interface{}{
				"status":  models.CommissionStatusPaid,
				"paid_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark commissions paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Completed payout %s (transfer %s)", payout.ID, result.ID)
	return map[string]string{"transfer_id": result.ID}, nil
}
