package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
)

// bundleTable is the name of the table for checkpoint caching.
const bundleTable = "kmetrics_bundle_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetCacheDBFilePath returns the path to the SQLite DB file for checkpoint storage.
func GetCacheDBFilePath(outputDir string) string {
	return contract.GetCacheDBFilePath(outputDir)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// StoreOptions selects the backends of the two stores. An empty backend leaves
// that store uninitialized.
type StoreOptions struct {
	OutputDir      string
	CacheBackend   schema.DatabaseBackend
	CacheConnStr   string
	HistoryBackend schema.DatabaseBackend
	HistoryConnStr string
}

// InitCaching initializes the global manager with separate checkpoint and history stores.
func InitCaching(opts StoreOptions) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var bundleStore contract.CacheStore
		if opts.CacheBackend != "" {
			bundleStore, err = NewCacheStore(bundleTable, opts.CacheBackend, opts.CacheConnStr, GetCacheDBFilePath(opts.OutputDir))
			if err != nil {
				initErr = fmt.Errorf("failed to initialize checkpoint caching: %w", err)
				return
			}
		}

		var historyStore contract.HistoryStore
		if opts.HistoryBackend != "" {
			historyStore, err = NewHistoryStore(opts.HistoryBackend, opts.HistoryConnStr)
			if err != nil {
				if bundleStore != nil {
					_ = bundleStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.bundle = bundleStore
		Manager.history = historyStore
	})

	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.bundle != nil {
			_ = Manager.bundle.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache clears the checkpoint cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, []string{bundleTable})
}

// ClearHistory clears the run history for the specified backend, including
// the migration version table.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	// Children first
	tables := []string{modelCountsTable, descriptorsTable, runsTable, migrationsTable}
	return clearTables(backend, dbFilePath, connStr, tables)
}

func clearTables(backend schema.DatabaseBackend, dbFilePath, connStr string, tables []string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, _ := driverFor(backend)
		for _, table := range tables {
			if err := clearSQLTable(driverName, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
