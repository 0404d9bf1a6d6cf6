package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func prepare(logger *slog.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger})
	return goose.SetDialect("mysql")
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := prepare(logger); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, migrationsDir)
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := prepare(logger); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, migrationsDir)
}

// Status logs the applied/pending state of every migration.
func Status(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := prepare(logger); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, migrationsDir)
}

// gooseLogger routes goose output through slog.
type gooseLogger struct{ l *slog.Logger }

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(fmt.Sprintf(format, v...), "component", "migrations")
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info(fmt.Sprintf(format, v...), "component", "migrations")
}
