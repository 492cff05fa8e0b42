package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/config"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/rules"
	"github.com/Veraticus/keihi/internal/storage"
	"github.com/Veraticus/keihi/internal/validation"
	"github.com/spf13/viper"
)

// app bundles what a command needs: settings, the database and both rule
// stores loaded from it.
type app struct {
	cfg        *config.App
	store      *storage.SQLiteStorage
	categories *rules.CategoryStore
	checks     *rules.ValidationStore
}

// loadConfig reads the application settings from the global viper instance.
func loadConfig() (*config.App, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the database and runs pending migrations.
func initStorage(ctx context.Context, cfg *config.App) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openApp loads configuration, storage and both rule stores. Rule load
// failures fall back to the defaults and are logged.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		store:      store,
		categories: rules.NewCategoryStore(store),
		checks:     rules.NewValidationStore(store),
	}
	if err := a.categories.Load(ctx); err != nil {
		slog.Warn("Using default category rules", "error", err)
	}
	if err := a.checks.Load(ctx); err != nil {
		slog.Warn("Using default validation rules", "error", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// autoBackup snapshots the database before a destructive operation. A failed
// backup is logged and does not stop the operation.
func (a *app) autoBackup(ctx context.Context, operation string) {
	bm, err := a.store.NewBackupManager()
	if err != nil {
		slog.Warn("Failed to open backups", "error", err)
		return
	}
	if _, err := bm.AutoBackup(ctx, operation); err != nil {
		slog.Warn("Automatic backup failed", "operation", operation, "error", err)
	}
}

// checkPeriod validates a YYYYMM flag value.
func checkPeriod(period string) error {
	if _, err := validation.ParsePeriod(period); err != nil {
		return common.NewUserError("期間は YYYYMM 形式で指定してください", err)
	}
	return nil
}

// resolveCategoryRule finds a rule by 1-based position, full id or unique id
// prefix.
func resolveCategoryRule(list []model.AccountCategoryRule, ref string) (model.AccountCategoryRule, int, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(list) {
			return model.AccountCategoryRule{}, -1, fmt.Errorf("%w: position %d not in 1..%d", common.ErrIndexOutOfRange, n, len(list))
		}
		return list[n-1], n - 1, nil
	}

	match := -1
	for i, r := range list {
		if r.ID == ref {
			return r, i, nil
		}
		if strings.HasPrefix(r.ID, ref) {
			if match >= 0 {
				return model.AccountCategoryRule{}, -1, fmt.Errorf("%w: id prefix %q is ambiguous", common.ErrRuleNotFound, ref)
			}
			match = i
		}
	}
	if match < 0 {
		return model.AccountCategoryRule{}, -1, fmt.Errorf("%w: %s", common.ErrRuleNotFound, ref)
	}
	return list[match], match, nil
}

// resolveReceipt finds a receipt by full id or unique id prefix.
func resolveReceipt(receipts []model.ReceiptData, ref string) (string, error) {
	found := ""
	for _, r := range receipts {
		if r.ID == ref {
			return r.ID, nil
		}
		if ref != "" && strings.HasPrefix(r.ID, ref) {
			if found != "" {
				return "", fmt.Errorf("%w: id prefix %q is ambiguous", common.ErrReceiptNotFound, ref)
			}
			found = r.ID
		}
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", common.ErrReceiptNotFound, ref)
	}
	return found, nil
}

func printLine(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		slog.Debug("failed to write output", "error", err)
	}
}
