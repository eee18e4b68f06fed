package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the outcomes handlers need to tell apart.
var (
	// ErrNotFound covers the normal, non-exceptional "no matching order or
	// invoice" outcome of reconciliation, and missing stores.
	ErrNotFound = errors.New("not found")

	// ErrCredentialsRejected means Shopify refused the provided API
	// credentials. User-facing; no state was touched.
	ErrCredentialsRejected = errors.New("shopify rejected the provided credentials")

	// ErrScopesInsufficient means the private app lacks read_orders or
	// write_script_tags. User-facing; no state was touched.
	ErrScopesInsufficient = errors.New("shopify private app is missing the read_orders or write_script_tags permission")

	// ErrConcurrentEdit is returned when a whole-blob settings replace lost
	// an optimistic concurrency race with another editor.
	ErrConcurrentEdit = errors.New("store settings were modified concurrently")
)

// ValidationError reports malformed or incomplete user input. It is always
// recovered at the HTTP boundary and never indicates a side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RemoteError wraps a network, timeout or 5xx failure talking to Shopify.
// Reconciliation propagates it so callers can distinguish "platform
// unavailable" from "no such order".
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("shopify %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
