// Command qcctl runs administrative tasks against the QC database: manual
// check-in synchronisation and user provisioning.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/infrastructure/config"
	"github.com/qcms/backend/internal/infrastructure/logger"
	"github.com/qcms/backend/internal/infrastructure/persistence"
)

var (
	version = "dev"

	logLevel string
)

// runtimeEnv is what every subcommand needs: configuration, a logger and
// the PostgreSQL pool
type runtimeEnv struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
}

func openEnv() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel), cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		logger.Sync(log)
		return nil, err
	}
	return &runtimeEnv{cfg: cfg, log: log, db: db}, nil
}

func (e *runtimeEnv) Close() {
	if err := e.db.Close(); err != nil {
		e.log.Error("Error closing database", zap.Error(err))
	}
	logger.Sync(e.log)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qcctl",
		Short:         "QC backend administration",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newUserCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
