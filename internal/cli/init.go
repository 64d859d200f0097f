// Package cli consolidates the initialization steps shared by the
// fintrack binaries: env loading, logging, configuration and storage.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// App holds everything a binary needs before wiring its own services.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Storage *storage.SQLiteRepository
}

// Setup runs the common startup sequence. It exits the process on a
// configuration or storage failure, after logging the cause.
func Setup(component string) *App {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: component,
	})
	log.SetDefault(logger)

	logger.Info("starting", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open SQLite database", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: repo,
	}
}
