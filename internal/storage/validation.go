// Package storage provides the data persistence layer for keihi.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/keihi/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidPeriod = errors.New("period must be six digits YYYYMM")
	ErrInvalidRecord = errors.New("invalid receipt")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePeriod checks the shape of a batch key. Month range is the
// validation package's concern; storage only needs a stable key.
func validatePeriod(period string) error {
	if len(period) != 6 {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	for _, r := range period {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
		}
	}
	return nil
}

// validateReceipts ensures every receipt can be keyed.
func validateReceipts(receipts []model.ReceiptData) error {
	seen := make(map[string]bool, len(receipts))
	for i, r := range receipts {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("receipt at index %d: %w: missing ID", i, ErrInvalidRecord)
		}
		if seen[r.ID] {
			return fmt.Errorf("receipt at index %d: %w: duplicate ID %s", i, ErrInvalidRecord, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// validateCategorySettings validates a category rule collection before saving.
func validateCategorySettings(settings *model.CategoryRulesSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: category settings", ErrNilParameter)
	}
	for i := range settings.Rules {
		if err := settings.Rules[i].Validate(); err != nil {
			return fmt.Errorf("category rule at index %d: %w", i, err)
		}
	}
	return nil
}

// validateValidationSettings validates a validation rule collection before saving.
func validateValidationSettings(settings *model.ValidationRulesSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: validation settings", ErrNilParameter)
	}
	for i := range settings.Rules {
		if err := settings.Rules[i].Validate(); err != nil {
			return fmt.Errorf("validation rule at index %d: %w", i, err)
		}
	}
	return nil
}
