package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyDatabasePath   = "database.path"
	KeyReceiptsRoot   = "receipts.root"
	KeyHomeCurrency   = "receipts.home_currency"
	KeyOCRWorkers     = "ocr.workers"
	KeyOCRMaxAttempts = "ocr.max_attempts"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
)

// App holds the settings the commands need.
type App struct {
	DatabasePath   string
	ReceiptsRoot   string
	HomeCurrency   string
	LogLevel       string
	LogFormat      string
	OCRWorkers     int
	OCRMaxAttempts int
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "$HOME/.local/share/keihi/keihi.db")
	v.SetDefault(KeyReceiptsRoot, "$HOME/Documents/keihi")
	v.SetDefault(KeyHomeCurrency, "JPY")
	v.SetDefault(KeyOCRWorkers, 2)
	v.SetDefault(KeyOCRMaxAttempts, 3)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load reads the application settings from v, expanding paths.
func Load(v *viper.Viper) (*App, error) {
	app := &App{
		DatabasePath:   ExpandPath(v.GetString(KeyDatabasePath)),
		ReceiptsRoot:   ExpandPath(v.GetString(KeyReceiptsRoot)),
		HomeCurrency:   strings.ToUpper(strings.TrimSpace(v.GetString(KeyHomeCurrency))),
		OCRWorkers:     v.GetInt(KeyOCRWorkers),
		OCRMaxAttempts: v.GetInt(KeyOCRMaxAttempts),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// Validate checks that every setting is usable.
func (a *App) Validate() error {
	if a.DatabasePath == "" {
		return fmt.Errorf("%w: %s is required", common.ErrMissingConfig, KeyDatabasePath)
	}
	if a.ReceiptsRoot == "" {
		return fmt.Errorf("%w: %s is required", common.ErrMissingConfig, KeyReceiptsRoot)
	}
	if len(a.HomeCurrency) != 3 {
		return fmt.Errorf("%w: %s must be a 3-letter code, got %q", common.ErrInvalidConfig, KeyHomeCurrency, a.HomeCurrency)
	}
	if a.OCRWorkers < 1 {
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidConfig, KeyOCRWorkers)
	}
	if a.OCRMaxAttempts < 1 {
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidConfig, KeyOCRMaxAttempts)
	}
	return nil
}

// BackupsDir is where database backups are written.
func (a *App) BackupsDir() string {
	return filepath.Join(filepath.Dir(a.DatabasePath), "backups")
}
