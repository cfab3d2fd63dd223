package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheCmd focused on checkpoint management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by pipeline commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the feature classification checkpoint",
	Long: `Manage the checkpoint that stores the result of the feature classification.

Classifying every extracted model reads thousands of files. kmetrics stores the
result keyed by the output directory, the extractors, the excluded Kconfig paths
and the feature-count threshold, and reuses it on the next run.

Subcommands:
  status - Show checkpoint statistics and connection info
  clear  - Remove the stored checkpoints

Examples:
  # Check cache status
  kmetrics cache status

  # Clear the checkpoint after re-running the extraction
  kmetrics cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored checkpoints",
	Long: `Delete every stored classification checkpoint from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the checkpoint table

Examples:
  # Clear SQLite cache (default)
  kmetrics cache clear

  # Clear MySQL cache (set connection string via env variable)
  KMETRICS_CACHE_BACKEND=mysql KMETRICS_CACHE_DB_CONNECT="..." kmetrics cache clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadConfigFile(); err != nil {
			return err
		}
		backend, connStr, err := storeConfig("cache")
		if err != nil {
			return err
		}
		// The SQLite file is deleted, so no store is opened
		cfg.OutputDir = viper.GetString("output-dir")
		cfg.CacheBackend = backend
		cfg.CacheDBConnect = connStr
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		path := sqlitePath(cfg.CacheDBConnect, iocache.GetCacheDBFilePath(cfg.OutputDir))
		if err := iocache.ClearCache(cfg.CacheBackend, path, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display checkpoint statistics and connection details",
	Long: `Show detailed information about the classification checkpoint store.

Displays:
- Backend type and connection status
- Total number of stored checkpoints
- Last and oldest checkpoint timestamps
- Database size

Examples:
  # Check cache status
  kmetrics cache status`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetBundleStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
