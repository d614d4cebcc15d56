package llm

import (
	"context"

	"github.com/elroy-bot/elroy-sub001/observability"
)

// MaxCompletionRetries bounds how many times a turn is re-issued after a
// transient backend failure before giving up.
const MaxCompletionRetries = 2

// RetryingCompletionDriver wraps the raw provider call for one model turn.
// It normalizes message history for the active model, classifies failures,
// re-issues the turn against a fallback model on transient errors up to a
// bound, and surfaces typed errors otherwise. The retry loop is explicit:
// every attempt starts the turn from scratch, so the caller must construct a
// fresh interpreter for the returned stream.
type RetryingCompletionDriver struct {
	client   Client
	primary  ChatModel
	fallback *ChatModel
	retries  int
	hooks    *observability.Hooks
}

// DriverOption configures a RetryingCompletionDriver.
type DriverOption func(*RetryingCompletionDriver)

// WithFallbackModel sets the model used when the primary fails transiently.
func WithFallbackModel(m ChatModel) DriverOption {
	return func(d *RetryingCompletionDriver) { d.fallback = &m }
}

// WithMaxRetries overrides the retry bound.
func WithMaxRetries(n int) DriverOption {
	return func(d *RetryingCompletionDriver) { d.retries = n }
}

// WithHooks attaches observability callbacks.
func WithHooks(h *observability.Hooks) DriverOption {
	return func(d *RetryingCompletionDriver) { d.hooks = h }
}

// NewDriver constructs a driver for the given client and primary model.
func NewDriver(client Client, primary ChatModel, opts ...DriverOption) *RetryingCompletionDriver {
	d := &RetryingCompletionDriver{client: client, primary: primary, retries: MaxCompletionRetries}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ActiveModel returns the model the next Complete call will be issued
// against. It starts as the primary and only changes within a Complete call.
func (d *RetryingCompletionDriver) ActiveModel() ChatModel { return d.primary }

// Complete issues one streaming completion for the turn. On transient
// failures it switches to the fallback model (when configured) and retries
// up to the bound; past the bound it returns a RetriesExhaustedError.
// Structural conversation errors are returned immediately and never retried.
// Any other failure propagates unchanged.
func (d *RetryingCompletionDriver) Complete(ctx context.Context, messages []Message, tools []Tool) (Stream, error) {
	model := d.primary
	var lastErr error
	for attempt := 0; ; attempt++ {
		normalized, err := NormalizeRoles(messages, model)
		if err != nil {
			return nil, err
		}
		req := &ChatRequest{Messages: normalized, Tools: tools, Model: model.Name}
		s, err := d.client.ChatStream(ctx, req)
		if err == nil {
			return s, nil
		}
		if IsStructural(err) {
			return nil, &StructuralConversationError{Reason: err.Error()}
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
		if attempt >= d.retries {
			return nil, &RetriesExhaustedError{Model: model.Name, Attempts: attempt + 1, Err: lastErr}
		}
		if d.fallback != nil && model.Name != d.fallback.Name {
			d.hooks.SafeLLMRetry(ctx, "driver", d.fallback.Name, attempt+1, err)
			model = *d.fallback
		} else {
			d.hooks.SafeLLMRetry(ctx, "driver", model.Name, attempt+1, err)
		}
	}
}
