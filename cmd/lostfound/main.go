// Lost & Found Registry Service
//
// This is the main entry point for the lost-and-found device registry: a
// REST backend where users register an account, record devices they have
// lost or found, and search the community listing to reunite items with
// their owners.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/finderapp/lostfound-core/migrations"

	"github.com/finderapp/lostfound-core/internal/api"
	"github.com/finderapp/lostfound-core/internal/auth"
	"github.com/finderapp/lostfound-core/internal/device"
	"github.com/finderapp/lostfound-core/internal/infrastructure/config"
	"github.com/finderapp/lostfound-core/internal/infrastructure/database"
	"github.com/finderapp/lostfound-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting lost-and-found registry",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Wire repositories and services
	userRepo := auth.NewUserRepository(db.DB)
	authService := auth.NewService(userRepo, cfg.Security.JWT.Secret, cfg.GetTokenTTL(), log)
	deviceService := device.NewService(device.NewSQLiteRepository(db.DB), log)

	// Seed the admin account on a fresh database
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Auth:    authService,
		Devices: deviceService,
		Users:   userRepo,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LOSTFOUND_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LOSTFOUND_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
