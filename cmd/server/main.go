// Package main implements the entry point for the lessons API server,
// which manages recorded lessons and runs their transcription,
// correction, edition, and summary tasks in the background.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"llm_provider", cfg.LLM.Provider)

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			appLogger.Error("migration failed", "command", *migrateCmd, "error", err)
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if err := run(context.Background(), cfg, appLogger); err != nil {
		appLogger.Error("server exited with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	// Pending migrations run before the server takes traffic. The
	// -migrate flag stays available for running them on their own.
	if err := runMigrations(cfg, "up"); err != nil {
		return fmt.Errorf("failed to run startup migrations: %w", err)
	}

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return err
	}

	return app.Run(ctx)
}
