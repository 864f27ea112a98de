package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeProcessPayout      JobType = "process_payout"
	JobTypeBuyerActivitySweep JobType = "buyer_activity_sweep"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) (interface{}, error)

// QueueInterface defines the operations job producers need
type QueueInterface interface {
	RegisterHandler(jobType JobType, handler JobHandler)
	EnqueueJob(jobType JobType, payload interface{}) (string, error)
}

// Queue is a database-backed job queue. Jobs survive restarts; failed jobs
// are retried with exponential backoff up to their max_retries.
type Queue struct {
	db         *gorm.DB
	handlers   map[JobType]JobHandler
	processing bool
	quit       chan struct{}
}

// NewQueue creates a new queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
		quit:     make(chan struct{}),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := q.db.Create(&job).Error; err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID.String(), nil
}

// StartProcessing starts the processing loop in a goroutine
func (q *Queue) StartProcessing() {
	if q.processing {
		return
	}
	q.processing = true

	go func() {
		for {
			select {
			case <-q.quit:
				return
			default:
			}

			var job Job
			err := q.db.Where("status = ? AND (next_retry IS NULL OR next_retry <= ?)",
				JobStatusPending, time.Now()).
				Order("created_at ASC").First(&job).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					log.Printf("Error getting job from queue: %v", err)
				}
				time.Sleep(1 * time.Second)
				continue
			}

			q.processJob(job)
		}
	}()
}

// StopProcessing stops the processing loop
func (q *Queue) StopProcessing() {
	if !q.processing {
		return
	}
	q.processing = false
	close(q.quit)
}

func (q *Queue) processJob(job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("No handler registered for job type: %s", job.Type)
		q.markFailed(job, fmt.Errorf("no handler for job type %s", job.Type))
		return
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to update job status: %v", err)
		return
	}

	result, err := handler(context.Background(), job)
	if err != nil {
		q.handleFailure(job, err)
		return
	}

	updates := map[string]interface{}{
		"status":     JobStatusCompleted,
		"updated_at": time.Now(),
	}
	if result != nil {
		if resultBytes, marshalErr := json.Marshal(result); marshalErr == nil {
			updates["result"] = resultBytes
		}
	}
	if err := q.db.Model(&job).Updates(updates).Error; err != nil {
		log.Printf("Failed to mark job %s completed: %v", job.ID, err)
	}
}

// handleFailure reschedules the job with backoff or marks it failed for good
func (q *Queue) handleFailure(job Job, jobErr error) {
	job.RetryCount++
	if job.RetryCount > job.MaxRetries {
		q.markFailed(job, jobErr)
		return
	}

	nextRetry := time.Now().Add(backoff(job.RetryCount))
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": job.RetryCount,
		"next_retry":  nextRetry,
		"error":       jobErr.Error(),
		"updated_at":  time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to schedule retry for job %s: %v", job.ID, err)
	}
}

func (q *Queue) markFailed(job Job, jobErr error) {
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      jobErr.Error(),
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to mark job %s failed: %v", job.ID, err)
	}
	log.Printf("Job %s (%s) failed permanently: %v", job.ID, job.Type, jobErr)
}

// backoff returns the exponential retry delay: 30s, 1m, 2m, ... capped at 1h
func backoff(retry int) time.Duration {
	d := time.Duration(float64(30*time.Second) * math.Pow(2, float64(retry-1)))
	if d > time.Hour {
		return time.Hour
	}
	return d
}
