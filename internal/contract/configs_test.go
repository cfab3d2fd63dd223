package contract

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/kmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input equivalent to the CLI defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		OutputDir:       DefaultOutputDir,
		ExcludeKconfig:  DefaultExcludeKconfig,
		MinFeatureCount: DefaultMinFeatureCount,
		RerunFile:       DefaultRerunFile,
		HistoryYears:    DefaultHistoryYears,
		MetricsDocument: DefaultMetricsDocument,
		Output:          "text",
		Precision:       DefaultPrecision,
		Color:           "yes",
		LogLevel:        "info",
		CacheBackend:    "sqlite",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid defaults", mutate: func(*ConfigRawInput) {}},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "invalid precision", mutate: func(in *ConfigRawInput) { in.Precision = 9 }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "zero threshold", mutate: func(in *ConfigRawInput) { in.MinFeatureCount = 0 }, expectError: true},
		{name: "negative year cap", mutate: func(in *ConfigRawInput) { in.SolveMaxYear = -1 }, expectError: true},
		{name: "unknown extractor", mutate: func(in *ConfigRawInput) { in.Extractors = "kmax,featureide" }, expectError: true},
		{name: "bad history offset", mutate: func(in *ConfigRawInput) { in.HistoryYears = "1,two" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{name: "mysql without connection", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "mysql" }, expectError: true},
		{
			name: "shared sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.HistoryBackend = "sqlite"
				in.HistoryDBConnect = filepath.Join(DefaultOutputDir, "linux-features.db")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, schema.AllExtractors, cfg.Extractors)
	assert.Equal(t, []string{"/um/"}, cfg.ExcludedKconfigPaths)
	assert.Equal(t, []int{1, 2, 5, 10}, cfg.HistoryYears)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.CacheBackend)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.True(t, cfg.UseColors)
}

func TestProcessExtractorsKeepsOrderAndDedupes(t *testing.T) {
	input := validInput()
	input.Extractors = "kmax, KConfigReader ,KClause"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []schema.Extractor{schema.KClause, schema.KConfigReader}, cfg.Extractors)
}

func TestProcessHistoryYearsSorted(t *testing.T) {
	input := validInput()
	input.HistoryYears = "10,1,5,1"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []int{1, 5, 10}, cfg.HistoryYears)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/kmetrics?parseTime=true", false},
		{"mysql missing parseTime", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/kmetrics", true},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/kmetrics?parseTime=true", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 user=postgres dbname=kmetrics", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Extractors:   []schema.Extractor{schema.KClause},
		HistoryYears: []int{1, 2},
	}
	clone := cfg.Clone()
	clone.Extractors[0] = schema.KConfigReader
	clone.HistoryYears[0] = 7

	assert.Equal(t, schema.KClause, cfg.Extractors[0])
	assert.Equal(t, 1, cfg.HistoryYears[0])
}

func TestConfigParams(t *testing.T) {
	cfg := &Config{OutputDir: "out", Extractors: []schema.Extractor{schema.KClause}, SolveMaxYear: 2013}
	params := cfg.Params()
	assert.Equal(t, "out", params["output_dir"])
	assert.Equal(t, []string{"KClause"}, params["extractors"])
	assert.Equal(t, 2013, params["solve_max_year"])
}
