// Package cli provides the initialization steps shared by cmd/voicebook,
// cmd/voicebook-cli and cmd/voicebook-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"voicebook/internal/backend"
	"voicebook/internal/config"
	applog "voicebook/internal/log"
	"voicebook/internal/services"
	"voicebook/internal/sheets"
	gsheet "voicebook/internal/sheets/google"
)

// SetupLogger installs a text logger at level as the process default.
func SetupLogger(level string) *applog.Logger {
	l := applog.New(applog.Config{Level: applog.ParseLevel(level), Output: os.Stderr})
	applog.SetDefault(l)
	return l
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Bootstrap runs the common startup sequence: .env, config, logger,
// backend. The returned cleanup closes the store and the notifier.
func Bootstrap(ctx context.Context) (*config.Config, *backend.BackendResult, *applog.Logger) {
	LoadEnvFile()
	logger := SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return cfg, res, logger
}

// NewService builds the ledger service over a bootstrapped backend.
func NewService(cfg *config.Config, res *backend.BackendResult) *services.LedgerService {
	return services.NewLedgerService(res.Store, res.Notifier, cfg.Clock())
}

// NewSheetsExporter returns the spreadsheet export target, or nil when
// GOOGLE_SPREADSHEET_ID is unset.
func NewSheetsExporter(ctx context.Context, cfg *config.Config) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
