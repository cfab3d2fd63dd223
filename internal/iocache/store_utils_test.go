package iocache

import (
	"testing"
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "kmetrics_runs", false},
		{"leading underscore", "_cache", false},
		{"digits after first", "t1", false},
		{"empty", "", true},
		{"leading digit", "1table", true},
		{"space", "bad table", true},
		{"injection", "t; DROP TABLE x", true},
		{"quote", `t"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`kmetrics_runs`", quoteTableName("kmetrics_runs", schema.MySQLBackend))
	assert.Equal(t, `"kmetrics_runs"`, quoteTableName("kmetrics_runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"kmetrics_runs"`, quoteTableName("kmetrics_runs", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, "?", placeholders(schema.SQLiteBackend, 1))
}

func TestDriverFor(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	} {
		got, err := driverFor(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverFor(schema.NoneBackend)
	assert.Error(t, err)
}

func TestTimeColumnSQLite(t *testing.T) {
	ts := time.Date(2015, time.April, 12, 22, 5, 1, 500, time.UTC)
	c := timeColumn{backend: schema.SQLiteBackend}
	c.text.String = formatTime(ts, schema.SQLiteBackend).(string)
	c.text.Valid = true

	got, err := c.value()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, ts.Equal(*got))

	empty := timeColumn{backend: schema.SQLiteBackend}
	got, err = empty.value()
	require.NoError(t, err)
	assert.Nil(t, got)

	bad := timeColumn{backend: schema.SQLiteBackend}
	bad.text.String, bad.text.Valid = "yesterday", true
	_, err = bad.value()
	assert.Error(t, err)
}
