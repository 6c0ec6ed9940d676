// Package apperrors defines the sentinel errors the core raises. Call
// sites wrap a sentinel with fmt.Errorf("%w: detail", ...) so callers
// can still discriminate the class with errors.Is while the message
// carries the offending field or account.
package apperrors

import "errors"

var (
	// ErrValidation is a schema-shape or field-level failure (422).
	ErrValidation = errors.New("validation error")

	// Domain-fault errors (400): user-correctable, preflight-detectable.
	ErrUnbalanced        = errors.New("journal is not balanced")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingBucket     = errors.New("missing bucket")
	ErrInvalidBucket     = errors.New("invalid bucket for transition")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeBalance   = errors.New("negative balance")
	ErrInvalidAmount     = errors.New("invalid amount")

	// ErrDuplicateKey is a unique-index collision outside the
	// idempotency short-circuit (409).
	ErrDuplicateKey = errors.New("duplicate key")

	// Credential layer.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("server misconfigured")

	// ErrNotFound reports that a store lookup matched nothing: the
	// idempotency probe and the outbox claim return it. The empty-
	// history 404 is decided by the HTTP handler, not by this error.
	ErrNotFound = errors.New("not found")

	// Unexpected (500).
	ErrChaosFailure = errors.New("chaos failure")
	ErrInternal     = errors.New("internal error")
)
