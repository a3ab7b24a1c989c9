package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/pierre-chaville/lessons/internal/config"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf does not call os.Exit so main can handle application exit
// consistently.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations executes the given goose command (up, down, status)
// against the configured database using the embedded migration files.
func runMigrations(cfg *config.Config, command string) error {
	migrationLogger := slog.Default().With(
		"component", "migrations",
		"command", command,
	)

	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL is empty: check your configuration")
	}
	migrationLogger.Info("starting migration operation",
		"url", maskDatabaseURL(cfg.Database.URL))

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			migrationLogger.Error("error closing database connection", "error", err)
		}
	}()

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	startTime := time.Now()
	switch command {
	case "up":
		err = goose.Up(db, "migrations")
	case "down":
		err = goose.Down(db, "migrations")
	case "status":
		err = goose.Status(db, "migrations")
	default:
		return fmt.Errorf("unknown migration command %q (expected up, down, or status)", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	migrationLogger.Info("migration operation completed",
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsedURL.User != nil {
		parsedURL.User = url.UserPassword(parsedURL.User.Username(), "****")
		return parsedURL.String()
	}
	return dbURL
}
