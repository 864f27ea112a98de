package jobs

import (
	"gorm.io/gorm"

	"github.com/dealbase/backend/internal/queue"
	"github.com/dealbase/backend/internal/services/billing"
)

// RegisterJobs wires all job handlers into the queue
func RegisterJobs(q *queue.Queue, db *gorm.DB, provider billing.Provider) {
	payoutJob := NewPayoutJob(db, provider)
	q.RegisterHandler(queue.JobTypeProcessPayout, payoutJob.Process)

	sweepJob := NewBuyerSweepJob(db)
	q.RegisterHandler(queue.JobTypeBuyerActivitySweep, sweepJob.Process)
}
