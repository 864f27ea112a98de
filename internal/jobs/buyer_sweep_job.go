package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/queue"
)

// buyerInactivityWindow is how long a buyer may sit idle before their
// verified badge lapses and re-verification is required
const buyerInactivityWindow = 180 * 24 * time.Hour

// BuyerSweepJob expires verification for buyers that went inactive
type BuyerSweepJob struct {
	db *gorm.DB
}

// NewBuyerSweepJob creates a new sweep job handler
func NewBuyerSweepJob(db *gorm.DB) *BuyerSweepJob {
	return &BuyerSweepJob{db: db}
}

// Process runs one sweep
func (j *BuyerSweepJob) Process(ctx context.Context, job queue.Job) (interface{}, error) {
	cutoff := time.Now().Add(-buyerInactivityWindow)

	result := j.db.Model(&models.CashBuyer{}).
		Where("verified = ? AND last_active_at < ?", true, cutoff).
		Update("verified", false)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to sweep inactive buyers: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		log.Printf("Expired verification for %d inactive cash buyers", result.RowsAffected)
	}
	return map[string]int64{"expired": result.RowsAffected}, nil
}
