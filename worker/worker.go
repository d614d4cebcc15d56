// Package worker polls the background job queue and runs memory
// consolidation jobs.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elroy-bot/elroy-sub001/queue"
)

// Consolidator executes the memory maintenance behind a background job. The
// clustering and merging policy lives behind this interface.
type Consolidator interface {
	Consolidate(ctx context.Context, job *queue.Job) error
}

// ConsolidatorFunc adapts a function to the Consolidator interface.
type ConsolidatorFunc func(ctx context.Context, job *queue.Job) error

func (f ConsolidatorFunc) Consolidate(ctx context.Context, job *queue.Job) error {
	return f(ctx, job)
}

// Worker polls jobs from a queue and runs them through a Consolidator.
type Worker struct {
	id            string
	queue         queue.Queue
	queueName     string
	consolidator  Consolidator
	pollInterval  time.Duration
	maxConcurrent int
	maxAttempts   int
	log           *logrus.Logger
	stopCh        chan struct{}
	wg            sync.WaitGroup
	running       bool
	mu            sync.Mutex
}

// Config holds worker configuration.
type Config struct {
	ID            string
	Queue         queue.Queue
	QueueName     string
	Consolidator  Consolidator
	PollInterval  time.Duration
	MaxConcurrent int
	// MaxAttempts bounds redeliveries before a job is dropped.
	MaxAttempts int
	Logger      *logrus.Logger
}

// New creates a new worker.
func New(cfg Config) (*Worker, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if cfg.Consolidator == nil {
		return nil, fmt.Errorf("consolidator is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "consolidation"
	}
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("worker-%d", time.Now().UnixNano())
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Worker{
		id:            cfg.ID,
		queue:         cfg.Queue,
		queueName:     cfg.QueueName,
		consolidator:  cfg.Consolidator,
		pollInterval:  cfg.PollInterval,
		maxConcurrent: cfg.MaxConcurrent,
		maxAttempts:   cfg.MaxAttempts,
		log:           cfg.Logger,
		stopCh:        make(chan struct{}),
	}, nil
}

// Start begins polling for and executing jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{"worker": w.id, "queue": w.queueName}).
		Info("starting consolidation worker")

	for i := 0; i < w.maxConcurrent; i++ {
		w.wg.Add(1)
		go w.pollLoop(ctx)
	}
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.WithField("worker", w.id).Info("worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker stop timeout: %w", ctx.Err())
	}
}

func (w *Worker) pollLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
			w.pollOnce(ctx)
		}
	}
}

// pollOnce polls for a single job and executes it.
func (w *Worker) pollOnce(ctx context.Context) {
	job, err := w.queue.DequeueWithTimeout(ctx, w.queueName, w.pollInterval)
	if err != nil || job == nil {
		// Timeout or context canceled
		return
	}

	start := time.Now()
	execErr := w.consolidator.Consolidate(ctx, job)
	entry := w.log.WithFields(logrus.Fields{
		"worker":   w.id,
		"job":      job.ID,
		"type":     string(job.Type),
		"user":     job.UserID,
		"duration": time.Since(start),
	})

	if execErr == nil {
		if err := w.queue.Ack(ctx, w.queueName, job.ID); err != nil {
			entry.WithError(err).Error("ack failed")
			return
		}
		entry.Info("job completed")
		return
	}

	requeue := job.Attempts < w.maxAttempts
	if err := w.queue.Nack(ctx, w.queueName, job.ID, requeue); err != nil {
		entry.WithError(err).Error("nack failed")
		return
	}
	entry.WithError(execErr).WithField("requeue", requeue).Warn("job failed")
}
