package cmd

import (
	"fmt"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/iocache"
	"github.com/huangsam/kmetrics/schema"
	"github.com/spf13/viper"
)

// storeConfig reads and validates the backend and connection string under the
// given flag prefix ("cache" or "history").
func storeConfig(prefix string) (schema.DatabaseBackend, string, error) {
	backend, err := contract.ParseBackend(viper.GetString(prefix + "-backend"))
	if err != nil {
		return "", "", fmt.Errorf("invalid %s backend: %w", prefix, err)
	}
	connStr := viper.GetString(prefix + "-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// sqlitePath returns the database file a SQLite store uses.
func sqlitePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := storeConfig("cache")
	if err != nil {
		return err
	}
	cfg.OutputDir = viper.GetString("output-dir")

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitCaching(iocache.StoreOptions{
		OutputDir:    cfg.OutputDir,
		CacheBackend: backend,
		CacheConnStr: connStr,
	}); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := storeConfig("history")
	if err != nil {
		return err
	}

	if err := iocache.InitCaching(iocache.StoreOptions{
		HistoryBackend: backend,
		HistoryConnStr: connStr,
	}); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	// Used by the export command
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := storeConfig("history")
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}
