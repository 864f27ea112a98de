package queue

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler enqueues recurring jobs on a fixed schedule
type Scheduler struct {
	queue     QueueInterface
	scheduler *gocron.Scheduler
}

// NewScheduler creates a scheduler on UTC time
func NewScheduler(q QueueInterface) *Scheduler {
	return &Scheduler{
		queue:     q,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start registers the recurring jobs and starts the scheduler asynchronously
func (s *Scheduler) Start() {
	// Nightly sweep that expires stale buyer activity flags.
	if _, err := s.scheduler.Every(1).Day().At("03:00").Do(func() {
		s.enqueue(JobTypeBuyerActivitySweep, nil)
	}); err != nil {
		log.Printf("Failed to schedule buyer activity sweep: %v", err)
	}

	s.scheduler.StartAsync()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) enqueue(jobType JobType, payload interface{}) {
	if _, err := s.queue.EnqueueJob(jobType, payload); err != nil {
		log.Printf("Failed to enqueue %s: %v", jobType, err)
	}
}
