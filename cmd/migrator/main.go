package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screwyprof/liquidstake/ledger/store/pgxstore"
	"github.com/screwyprof/liquidstake/migrator"
	"github.com/screwyprof/liquidstake/migrator/config"
	"github.com/screwyprof/liquidstake/pkg/logger"
	"github.com/screwyprof/liquidstake/pkg/pgxdb"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Load configuration from environment
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	log.Info("Starting database migrator service",
		slog.String("migrationsDir", cfg.MigrationsDir),
		slog.Bool("seedDemo", cfg.SeedDemo),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Create a context that cancels on SIGINT/SIGTERM _or_ when the timeout elapses
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	// Connect to database
	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Apply migrations
	log.Info("Applying database migrations")
	if err := migrator.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
		log.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Database migrations applied successfully")

	if cfg.SeedDemo {
		log.Info("Seeding demo ledger")
		store, _ := pgxstore.New(db)
		if err := migrator.SeedDemo(ctx, store, time.Now().UTC()); err != nil {
			log.Error("Failed to seed demo ledger", slog.Any("error", err))
			os.Exit(1)
		}
		log.Info("Demo ledger seeded successfully")
	} else {
		if err := migrator.InitializePoolState(ctx, db, time.Now().UTC()); err != nil {
			log.Error("Failed to initialize pool state", slog.Any("error", err))
			os.Exit(1)
		}
		log.Info("Pool state initialized")
	}

	log.Info("Database migrator completed successfully")
}
