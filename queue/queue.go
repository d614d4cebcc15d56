// Package queue provides the background job queue used for memory
// consolidation and ingestion work.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the kind of background work a job carries.
type JobType string

const (
	// JobTypeConsolidate asks the worker to consolidate a user's memories.
	JobTypeConsolidate JobType = "consolidate_memories"
	// JobTypeIngest asks the worker to ingest an external document into memory.
	JobTypeIngest JobType = "ingest_document"
)

// Job is a unit of background work.
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	UserID      string                 `json:"user_id"`
	SessionID   string                 `json:"session_id,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	EnqueueTime time.Time              `json:"enqueue_time"`
	Attempts    int                    `json:"attempts"`
}

// JobResult records the outcome of one job execution.
type JobResult struct {
	JobID    string        `json:"job_id"`
	UserID   string        `json:"user_id"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Queue defines the interface for job distribution.
type Queue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, queueName string, job *Job) error

	// Dequeue retrieves a job from the queue (blocking).
	Dequeue(ctx context.Context, queueName string) (*Job, error)

	// DequeueWithTimeout retrieves a job with a timeout.
	DequeueWithTimeout(ctx context.Context, queueName string, timeout time.Duration) (*Job, error)

	// Ack acknowledges successful job completion.
	Ack(ctx context.Context, queueName string, jobID string) error

	// Nack indicates job failure and potentially requeues.
	Nack(ctx context.Context, queueName string, jobID string, requeue bool) error

	// Len returns the number of ready jobs in the queue.
	Len(ctx context.Context, queueName string) (int, error)

	// Close closes the queue and releases resources.
	Close() error
}

// NewJob creates a job with a generated ID.
func NewJob(jobType JobType, userID string) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Type:        jobType,
		UserID:      userID,
		Payload:     make(map[string]interface{}),
		Metadata:    make(map[string]interface{}),
		EnqueueTime: time.Now().UTC(),
	}
}
