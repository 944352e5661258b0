// Command advisor serves storm safety checks over HTTP and runs one-shot
// checks from the command line.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/storm-safety-advisor/internal/config"
	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "advisor",
		Short:        "Storm safety advisor",
		Long:         "advisor checks a location against active weather alerts and points to the nearest safe city.",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(), newCheckCmd(), newLocateCmd())
	return root
}

// bootstrap loads configuration and builds the shared logger and metrics.
// Logs share stdout with one-shot command output, so oneShot lowers the
// default level to errors unless LOG_LEVEL is set explicitly.
func bootstrap(oneShot bool) (*config.Config, *slog.Logger, *observability.Metrics, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, nil, nil, err
	}
	if oneShot && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "error"
	}
	return cfg, observability.NewLogger(cfg), observability.NewMetrics(), nil
}
