package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tuneflow/internal/logging"
)

type rootFlags struct {
	DSN      string
	LogLevel string
}

var (
	rf     rootFlags
	logger *slog.Logger
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:           "tuneflow",
		Short:         "Launch wrapper and run registry for external fine-tuning trainers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(rf.LogLevel, os.Stderr)
		},
	}

	rootCmd.PersistentFlags().StringVar(&rf.DSN, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN for the run registry (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&rf.LogLevel, "log-level", "info", "log level: debug|info|warn|error")

	rootCmd.AddCommand(launchCmd("train"))
	rootCmd.AddCommand(launchCmd("eval"))
	rootCmd.AddCommand(launchCmd("predict"))
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(checkpointsCmd())
	rootCmd.AddCommand(experimentsCmd())
	rootCmd.AddCommand(dbCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd.Execute()
}

func dsnOrErr() (string, error) {
	if rf.DSN == "" {
		return "", fmt.Errorf("missing --dsn (or set DATABASE_URL)")
	}
	return rf.DSN, nil
}
