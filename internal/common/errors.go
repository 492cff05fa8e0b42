// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound          = errors.New("not found")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Rule errors.
	ErrRuleNotFound     = errors.New("rule not found")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrBuiltInRule      = errors.New("built-in rules cannot be deleted")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrUnsupportedField = errors.New("unsupported field")

	// OCR errors.
	ErrOCRFailed      = errors.New("ocr failed")
	ErrOCRUnavailable = errors.New("ocr provider unavailable")

	// Configuration errors.
	ErrInvalidPeriod = errors.New("invalid period")
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrOCRUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
