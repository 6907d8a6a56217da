// Package cli provides common initialization shared by cmd/miadmin,
// cmd/miadmin-server and cmd/miadmin-events.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"miadmin/internal/backend"
	"miadmin/internal/config"
	"miadmin/internal/core"
	"miadmin/internal/ledger"
	"miadmin/internal/log"
	"miadmin/internal/services"
)

// SetupLogger creates the application logger at the given level and makes
// it the slog default.
func SetupLogger(level slog.Level) *log.Logger {
	logger := log.New(log.Config{Level: level, Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Bootstrap loads .env, the config and a logger at the configured level,
// and sets the currency amounts are displayed in.
func Bootstrap() (*config.Config, *log.Logger) {
	LoadEnvFile()
	logger := SetupLogger(slog.LevelInfo)
	cfg := LoadAndValidateConfig(logger)
	logger = SetupLogger(cfg.SlogLevel())
	core.DisplayCurrency = cfg.Currency
	return cfg, logger
}

// OpenEngine builds the configured backend and an engine over it, with the
// persisted ledger already loaded. The returned cleanup releases the backend.
func OpenEngine(ctx context.Context, logger *log.Logger, cfg *config.Config, opts ...services.Option) (*services.Engine, backend.CleanupFunc, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}

	opts = append(res.EngineOptions(), opts...)
	opts = append(opts, services.WithLogger(logger.WithComponent(log.ComponentEngine)))
	engine := services.NewEngine(ledger.NewStore(res.Repository), opts...)
	if err := engine.Load(ctx); err != nil {
		res.Cleanup()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	return engine, res.Cleanup, nil
}
