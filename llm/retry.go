package llm

import (
	"context"
	"math"
	"time"
)

// Retrier performs bounded exponential backoff retries for a function. It
// covers network-level flakiness inside a provider adapter; model fallback on
// transient failures is handled by RetryingCompletionDriver.
type Retrier struct {
	cfg RetryConfig
	// OnAttempt, when set, is called before each retry sleep with the
	// 1-based attempt number and the error that triggered it.
	OnAttempt func(attempt int, err error)
}

// NewRetrier creates a new Retrier with the given config (or defaults for
// zero values).
func NewRetrier(cfg RetryConfig) *Retrier {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultRetryConfig().MaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultRetryConfig().InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultRetryConfig().MaxDelay
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = DefaultRetryConfig().BackoffFactor
	}
	return &Retrier{cfg: cfg}
}

// Do runs fn and retries on error up to MaxRetries with exponential backoff.
// Structural conversation errors are never retried.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var attempt int
	var delay = r.cfg.InitialDelay
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if IsStructural(err) || attempt >= r.cfg.MaxRetries {
			return err
		}
		attempt++
		if r.OnAttempt != nil {
			r.OnAttempt(attempt, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		next := time.Duration(float64(delay) * r.cfg.BackoffFactor)
		if next > r.cfg.MaxDelay || next < 0 || next > time.Duration(math.MaxInt64) {
			next = r.cfg.MaxDelay
		}
		delay = next
	}
}
