package llm

import (
	"errors"
	"fmt"
	"strings"
)

// missingToolResultFragment is how OpenAI-compatible backends report an
// assistant tool-call turn that is not followed by tool result messages.
const missingToolResultFragment = "must be followed by tool"

// StructuralConversationError reports a message history that violates
// required sequencing: a tool-calling assistant turn without following tool
// results, or a first message that is not a system message. It is never
// retried.
type StructuralConversationError struct {
	Reason string
}

func (e *StructuralConversationError) Error() string {
	return fmt.Sprintf("structural conversation error: %s", e.Reason)
}

// RetriesExhaustedError reports a transient backend failure that persisted
// past the retry bound with no further fallback available.
type RetriesExhaustedError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("completion retries exhausted after %d attempts (model %s): %v", e.Attempts, e.Model, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// TransientError wraps a rate-limit or backend-side internal failure that is
// eligible for fallback and retry. Provider adapters classify their SDK
// errors into this type.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient backend error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err represents a rate limit or a backend-side
// internal error.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsStructural reports whether err indicates a conversation sequencing
// violation, either as a typed error or as the raw provider message.
func IsStructural(err error) bool {
	var se *StructuralConversationError
	if errors.As(err, &se) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), missingToolResultFragment)
}

// TransientStatusCode reports whether an HTTP status from a provider should
// be treated as transient: rate limiting or a backend-side internal error.
func TransientStatusCode(code int) bool {
	return code == 429 || code >= 500
}
