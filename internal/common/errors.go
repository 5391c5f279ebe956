package common

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// repository specific errors
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPersistence   = errors.New("persistence failure")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// key redemption errors
	ErrKeyNotFound          = errors.New("key not found")
	ErrKeyAlreadyUsed       = errors.New("key already used")
	ErrKeyExpired           = errors.New("key expired")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrRateLimited          = errors.New("too many failed attempts")
	ErrSessionInvalid       = errors.New("session invalid or expired")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports malformed input. Its message is safe to show to the
// caller verbatim.
type ValidationError struct {
	Msg string
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RateLimitError is returned while a fingerprint is locked out.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d minute(s)", e.Minutes())
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Minutes returns the remaining lockout rounded up to whole minutes.
func (e *RateLimitError) Minutes() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(e.RetryAfter.Minutes()))
}

// PersistenceErr wraps a storage failure so callers can match ErrPersistence
// while the original cause stays available for logging.
func PersistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
