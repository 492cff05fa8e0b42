// Package service defines the interfaces shared between the orchestrator,
// the rule stores, the CLI and the persistence layer.
package service

import (
	"context"

	"github.com/Veraticus/keihi/internal/model"
)

// CategorySettingsStore persists the category rule collection.
// Load returns nil, nil when nothing has been saved yet.
type CategorySettingsStore interface {
	LoadCategorySettings(ctx context.Context) (*model.CategoryRulesSettings, error)
	SaveCategorySettings(ctx context.Context, settings *model.CategoryRulesSettings) error
}

// ValidationSettingsStore persists the validation rule collection.
// Load returns nil, nil when nothing has been saved yet.
type ValidationSettingsStore interface {
	LoadValidationSettings(ctx context.Context) (*model.ValidationRulesSettings, error)
	SaveValidationSettings(ctx context.Context, settings *model.ValidationRulesSettings) error
}

// BatchStore persists receipt batches keyed by YYYYMM period.
type BatchStore interface {
	SaveBatch(ctx context.Context, period string, receipts []model.ReceiptData) error
	GetBatch(ctx context.Context, period string) ([]model.ReceiptData, error)
	ListPeriods(ctx context.Context) ([]string, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	CategorySettingsStore
	ValidationSettingsStore
	BatchStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// OCRProvider extracts receipt fields from one document. It is implemented
// outside this module; the orchestrator only consumes its results.
type OCRProvider interface {
	Recognize(ctx context.Context, filePath string) (*model.OCRResult, error)
}
