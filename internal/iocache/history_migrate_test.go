package iocache

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteTables(t *testing.T, path string) []string {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'kmetrics_%' ORDER BY name`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestMigrateHistoryNoneBackend(t *testing.T) {
	err := MigrateHistory(&bytes.Buffer{}, schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "not supported")
}

func TestMigrateHistorySQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	var out bytes.Buffer

	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, -1))
	assert.Contains(t, out.String(), "to version 3")
	assert.Equal(t, []string{descriptorsTable, modelCountsTable, runsTable, migrationsTable}, sqliteTables(t, path))

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, -1))
	assert.Contains(t, out.String(), "already at the latest version")

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, 1))
	assert.Contains(t, out.String(), "to version 1")
	assert.Equal(t, []string{runsTable, migrationsTable}, sqliteTables(t, path))

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, path, 0))
	assert.Contains(t, out.String(), "rolled back")
	assert.Equal(t, []string{migrationsTable}, sqliteTables(t, path))
}

func TestMigrateAfterStoreCreatedTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, MigrateHistory(&bytes.Buffer{}, schema.SQLiteBackend, path, -1))
}

func TestUpStatements(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		t.Run(string(backend), func(t *testing.T) {
			statements, err := upStatements(backend)
			require.NoError(t, err)
			require.Len(t, statements, 3)
			assert.Contains(t, statements[0], runsTable)
			assert.Contains(t, statements[1], descriptorsTable)
			assert.Contains(t, statements[2], modelCountsTable)
			for _, stmt := range statements {
				assert.Contains(t, stmt, "IF NOT EXISTS")
			}
		})
	}

	_, err := upStatements(schema.NoneBackend)
	assert.Error(t, err)
}
