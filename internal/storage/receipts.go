package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
)

// SaveBatch replaces the stored batch for period with receipts, keeping their order.
func (s *SQLiteStorage) SaveBatch(ctx context.Context, period string, receipts []model.ReceiptData) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePeriod(period); err != nil {
		return err
	}
	if err := validateReceipts(receipts); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM receipts WHERE period = ?", period); err != nil {
			return fmt.Errorf("failed to clear batch %s: %w", period, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO receipts (id, period, position, payload, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, receipt := range receipts {
			payload, err := json.Marshal(receipt)
			if err != nil {
				return fmt.Errorf("failed to encode receipt %s: %w", receipt.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, receipt.ID, period, i, string(payload)); err != nil {
				return fmt.Errorf("failed to insert receipt %s: %w", receipt.ID, err)
			}
		}
		return nil
	})
}

// GetBatch returns the stored batch for period in its saved order. A period
// with nothing stored yields an empty batch.
func (s *SQLiteStorage) GetBatch(ctx context.Context, period string) ([]model.ReceiptData, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, payload FROM receipts WHERE period = ? ORDER BY position", period)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch %s: %w", period, err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []model.ReceiptData
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		var receipt model.ReceiptData
		if err := json.Unmarshal([]byte(payload), &receipt); err != nil {
			return nil, fmt.Errorf("%w: receipt %s: %w", common.ErrDatabaseCorrupted, id, err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch %s: %w", period, err)
	}
	return receipts, nil
}

// ListPeriods returns every period with a stored batch, newest first.
func (s *SQLiteStorage) ListPeriods(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT period FROM receipts ORDER BY period DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var periods []string
	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}
