package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
)

// Settings keys.
const (
	categoryRulesKey   = "category_rules"
	validationRulesKey = "validation_rules"
)

// LoadCategorySettings returns the saved category rules, or nil when none
// have been saved.
func (s *SQLiteStorage) LoadCategorySettings(ctx context.Context) (*model.CategoryRulesSettings, error) {
	var settings model.CategoryRulesSettings
	found, err := s.loadSetting(ctx, categoryRulesKey, &settings)
	if err != nil || !found {
		return nil, err
	}
	return &settings, nil
}

// SaveCategorySettings replaces the saved category rules.
func (s *SQLiteStorage) SaveCategorySettings(ctx context.Context, settings *model.CategoryRulesSettings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategorySettings(settings); err != nil {
		return err
	}
	return s.saveSetting(ctx, categoryRulesKey, settings.Version, settings)
}

// LoadValidationSettings returns the saved validation rules, or nil when none
// have been saved.
func (s *SQLiteStorage) LoadValidationSettings(ctx context.Context) (*model.ValidationRulesSettings, error) {
	var settings model.ValidationRulesSettings
	found, err := s.loadSetting(ctx, validationRulesKey, &settings)
	if err != nil || !found {
		return nil, err
	}
	return &settings, nil
}

// SaveValidationSettings replaces the saved validation rules.
func (s *SQLiteStorage) SaveValidationSettings(ctx context.Context, settings *model.ValidationRulesSettings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateValidationSettings(settings); err != nil {
		return err
	}
	return s.saveSetting(ctx, validationRulesKey, settings.Version, settings)
}

func (s *SQLiteStorage) loadSetting(ctx context.Context, key string, dest any) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM settings WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return false, fmt.Errorf("%w: %s: %w", common.ErrDatabaseCorrupted, key, err)
	}
	return true, nil
}

func (s *SQLiteStorage) saveSetting(ctx context.Context, key string, version int, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, version, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, key, version, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
