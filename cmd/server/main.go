package main // Entry point package

import (
    "errors"   // errors matches a missing .env
    "io/fs"    // fs.ErrNotExist
    "log/slog" // slog is the process logger
    "os"       // os sets the exit code
    "strings"  // strings normalises LOG_LEVEL

    "github.com/joho/godotenv" // godotenv loads .env into the environment
    "github.com/spf13/cobra"   // cobra parses the command line
)

func main() {
    if err := newRootCommand().Execute(); err != nil {
        os.Exit(1) // cobra already printed the error
    }
}

// newRootCommand builds the CLI.  Without a subcommand it serves the API.
func newRootCommand() *cobra.Command {
    root := &cobra.Command{
        Use:           "salvambiente",
        Short:         "Salvambiente environmental-education API",
        SilenceUsage:  true,
        SilenceErrors: false,
        PersistentPreRunE: func(*cobra.Command, []string) error {
            // a missing .env is fine; the environment may already be set
            if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
                return err
            }
            return nil
        },
        RunE: func(cmd *cobra.Command, _ []string) error {
            return runServe(cmd.Context())
        },
    }
    root.AddCommand(newServeCommand(), newMigrateCommand())
    return root
}

// newLogger builds the process-wide JSON logger.
func newLogger(level string) *slog.Logger {
    var l slog.Level
    switch strings.ToLower(level) {
    case "debug":
        l = slog.LevelDebug
    case "warn", "warning":
        l = slog.LevelWarn
    case "error":
        l = slog.LevelError
    default:
        l = slog.LevelInfo
    }
    return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
