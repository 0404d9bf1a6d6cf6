package main // migrate subcommands

import (
    "context"
    "database/sql"
    "log/slog"

    "github.com/spf13/cobra"

    "github.com/iliyamo/salvambiente-api/internal/config"
    "github.com/iliyamo/salvambiente-api/internal/database"
)

// newMigrateCommand groups the goose operations under "migrate".
func newMigrateCommand() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "migrate",
        Short: "Manage the database schema",
    }
    cmd.AddCommand(
        migrateStep("up", "Apply every pending migration", database.Migrate),
        migrateStep("down", "Revert the most recent migration", database.Rollback),
        migrateStep("status", "Show applied and pending migrations", database.Status),
    )
    return cmd
}

// migrateStep builds one migrate subcommand around run.  Each opens its
// own connection and closes it when done.
func migrateStep(use, short string, run func(context.Context, *sql.DB, *slog.Logger) error) *cobra.Command {
    return &cobra.Command{
        Use:   use,
        Short: short,
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            cfg, err := config.Load()
            if err != nil {
                return err
            }
            logger := newLogger(cfg.LogLevel)
            db, err := database.Open(cmd.Context(), cfg)
            if err != nil {
                return err
            }
            defer db.Close()
            return run(cmd.Context(), db, logger)
        },
    }
}
