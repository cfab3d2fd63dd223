package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyCmd focused on run history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the run history and its exports",
	Long: `Manage the history of pipeline runs used for trend tracking and reporting.

When a history backend is configured, kmetrics records every run, storing:
- Run metadata (start and end time, parameters, whether the checkpoint was reused)
- The headline counts of every feature descriptor
- The normalized model counts

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  clear   - Remove all recorded runs
  export  - Export the history to Parquet files
  migrate - Run database schema migrations

Examples:
  # Record runs in the default SQLite database
  kmetrics run --history-backend sqlite

  # Check history status
  kmetrics history status --history-backend sqlite`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete every recorded run, descriptor and model count.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Clear the SQLite history
  kmetrics history clear --history-backend sqlite`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historyMigrateSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		path := sqlitePath(cfg.HistoryDBConnect, iocache.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, path, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the run history.

Displays:
- Backend type and connection status
- Total number of runs, descriptors and model counts
- Last run and oldest run timestamps

Examples:
  # Check history status
  kmetrics history status --history-backend sqlite`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("history store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history to Parquet for BI tools and analytics",
	Long: `Export all recorded runs to Parquet format for use with analytics tools.

Exports three datasets:
- <prefix>.runs.parquet
- <prefix>.feature_descriptors.parquet
- <prefix>.model_counts.parquet

Requires: --output-file parameter, used as the file prefix

Examples:
  # Export the SQLite history
  kmetrics history export --history-backend sqlite --output-file kmetrics`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		if _, err := iocache.ExecuteHistoryExport(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			if errors.Is(err, iocache.ErrNoHistory) {
				fmt.Println("No run history found to export.")
				return
			}
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version
  kmetrics history migrate --history-backend sqlite

  # Roll back every migration
  kmetrics history migrate --history-backend sqlite --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historyMigrateSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
