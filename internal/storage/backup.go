package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoBackups is how many automatic backups are kept.
const maxAutoBackups = 5

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupExists    = errors.New("backup already exists")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrInvalidBackupID = errors.New("invalid backup id: cannot contain path separators")
)

// BackupManager snapshots the database file before destructive rule or
// batch operations.
type BackupManager struct {
	db         *sql.DB
	now        func() time.Time
	dbPath     string
	backupsDir string
}

// BackupInfo describes one stored backup.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// NewBackupManager creates a backup manager writing next to dbPath.
func NewBackupManager(db *sql.DB, dbPath string) (*BackupManager, error) {
	backupsDir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(backupsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &BackupManager{
		db:         db,
		now:        time.Now,
		dbPath:     dbPath,
		backupsDir: backupsDir,
	}, nil
}

// Create snapshots the database under tag. An empty tag gets a timestamped name.
func (bm *BackupManager) Create(ctx context.Context, tag, description string) (*BackupInfo, error) {
	return bm.create(ctx, tag, description, false)
}

// AutoBackup snapshots the database before the named operation and prunes
// old automatic backups.
func (bm *BackupManager) AutoBackup(ctx context.Context, operation string) (*BackupInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, bm.now().Format("20060102-150405.000"))
	info, err := bm.create(ctx, tag, fmt.Sprintf("Automatic backup before %s", operation), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-backup: %w", err)
	}

	if err := bm.pruneAuto(ctx); err != nil {
		slog.Warn("Failed to prune old auto-backups", "error", err)
	}
	return info, nil
}

func (bm *BackupManager) create(ctx context.Context, tag, description string, auto bool) (*BackupInfo, error) {
	if tag == "" {
		tag = fmt.Sprintf("backup-%s", bm.now().Format("2006-01-02-1504"))
	}
	if err := validateBackupID(tag); err != nil {
		return nil, err
	}

	backupPath := bm.path(tag, ".db")
	if _, err := os.Stat(backupPath); err == nil {
		return nil, ErrBackupExists
	}

	var schemaVersion int
	if err := bm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	if _, err := bm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	if _, err := bm.db.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	stat, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := &BackupInfo{
		ID:            tag,
		CreatedAt:     bm.now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     bm.rowCounts(ctx),
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}

	if err := bm.saveMetadata(*info); err != nil {
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}
	if err := bm.storeMetadataInDB(ctx, *info); err != nil {
		slog.Debug("failed to store backup metadata in database", "error", err, "id", tag)
	}

	slog.Info("Created backup", "id", tag, "size", info.FileSize)
	return info, nil
}

// List returns every backup, newest first. Unreadable metadata is skipped.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := bm.loadMetadata(filepath.Join(bm.backupsDir, entry.Name()))
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Verify runs SQLite's integrity check against a stored backup.
func (bm *BackupManager) Verify(_ context.Context, id string) error {
	if err := validateBackupID(id); err != nil {
		return err
	}
	backupPath := bm.path(id, ".db")
	if _, err := os.Stat(backupPath); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}

	db, err := sql.Open("sqlite3", backupPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", ErrBackupCorrupted, result)
	}
	return nil
}

// Delete removes a backup and its metadata.
func (bm *BackupManager) Delete(ctx context.Context, id string) error {
	if err := validateBackupID(id); err != nil {
		return err
	}

	backupPath := bm.path(id, ".db")
	if err := os.Remove(backupPath); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to remove backup file: %w", err)
	}

	if err := os.Remove(bm.path(id, ".meta.json")); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", id)
	}
	if _, err := bm.db.ExecContext(ctx, "DELETE FROM backup_metadata WHERE id = ?", id); err != nil {
		slog.Debug("failed to remove backup metadata from database", "error", err, "id", id)
	}
	return nil
}

func (bm *BackupManager) pruneAuto(ctx context.Context) error {
	backups, err := bm.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoBackups {
			if err := bm.Delete(ctx, b.ID); err != nil {
				slog.Debug("failed to delete old auto-backup", "error", err, "id", b.ID)
			}
		}
	}
	return nil
}

func (bm *BackupManager) rowCounts(ctx context.Context) map[string]int {
	tableQueries := map[string]string{
		"settings": "SELECT COUNT(*) FROM settings",
		"receipts": "SELECT COUNT(*) FROM receipts",
	}

	counts := make(map[string]int, len(tableQueries))
	for table, query := range tableQueries {
		var count int
		if err := bm.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			// Table might not exist in older schemas
			continue
		}
		counts[table] = count
	}
	return counts
}

func (bm *BackupManager) path(id, suffix string) string {
	return filepath.Join(bm.backupsDir, id+suffix)
}

func (bm *BackupManager) saveMetadata(info BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	path := bm.path(info.ID, ".meta.json")
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (bm *BackupManager) loadMetadata(path string) (*BackupInfo, error) {
	// #nosec G304 - path is built from the backups directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (bm *BackupManager) storeMetadataInDB(ctx context.Context, info BackupInfo) error {
	rowCountsJSON, err := json.Marshal(info.RowCounts)
	if err != nil {
		return err
	}

	_, err = bm.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backup_metadata
		(id, created_at, description, file_size, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, info.ID, info.CreatedAt, info.Description, info.FileSize,
		string(rowCountsJSON), info.SchemaVersion, info.IsAuto)
	return err
}

func validateBackupID(id string) error {
	if strings.Contains(id, "/") || strings.Contains(id, "\\") || strings.Contains(id, "..") {
		return ErrInvalidBackupID
	}
	return nil
}
