package contract

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/kmetrics/schema"
)

// Default values for configuration.
const (
	DefaultOutputDir       = "output-linux"
	DefaultMetricsDocument = "src/public/init.json"
	DefaultRerunFile       = "model-count-with-6h-timeout.csv"
	DefaultMinFeatureCount = 2
	DefaultPrecision       = 2
	DefaultHistoryYears    = "1,2,5,10"
	DefaultExcludeKconfig  = "/um/"
	DefaultLogLevel        = "info"
	MaxPrecision           = 6
)

// Config holds the runtime configuration for a pipeline run.
// This struct remains the "final, validated" config.
type Config struct {
	OutputDir            string
	Extractors           []schema.Extractor
	ExcludedKconfigPaths []string
	MinFeatureCount      int
	RerunFile            string
	SolveMaxYear         int
	HistoryYears         []int
	MetricsDocument      string
	Refresh              bool
	ShowMisses           bool

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	LogLevel    string
	MetricsFile string // Prometheus textfile, empty to disable

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	OutputDir        string `mapstructure:"output-dir"`
	Extractors       string `mapstructure:"extractors"`
	ExcludeKconfig   string `mapstructure:"exclude-kconfig"`
	MinFeatureCount  int    `mapstructure:"min-feature-count"`
	RerunFile        string `mapstructure:"rerun-file"`
	SolveMaxYear     int    `mapstructure:"solve-max-year"`
	HistoryYears     string `mapstructure:"history-years"`
	MetricsDocument  string `mapstructure:"metrics-document"`
	Refresh          bool   `mapstructure:"refresh"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`
	MetricsFile      string `mapstructure:"metrics-file"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from featuresCmd.Flags() ---
	Misses bool `mapstructure:"misses"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Extractors = slices.Clone(c.Extractors)
	clone.ExcludedKconfigPaths = slices.Clone(c.ExcludedKconfigPaths)
	clone.HistoryYears = slices.Clone(c.HistoryYears)
	return &clone
}

// Params returns the run parameters recorded alongside each history run.
func (c *Config) Params() map[string]any {
	extractors := make([]string, 0, len(c.Extractors))
	for _, e := range c.Extractors {
		extractors = append(extractors, string(e))
	}
	return map[string]any{
		"output_dir":        c.OutputDir,
		"extractors":        extractors,
		"exclude_kconfig":   c.ExcludedKconfigPaths,
		"min_feature_count": c.MinFeatureCount,
		"solve_max_year":    c.SolveMaxYear,
		"history_years":     c.HistoryYears,
		"refresh":           c.Refresh,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processExtractors(cfg, input); err != nil {
		return err
	}
	if err := processHistoryYears(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
		if !strings.Contains(connStr, "parseTime=true") {
			return fmt.Errorf("MySQL connection string must set parseTime=true")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes a backend name, treating empty as none.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(s) == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateBackendConfigs validates checkpoint cache and run-history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	backend, err := ParseBackend(input.CacheBackend)
	if err != nil {
		return fmt.Errorf("invalid cache backend: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	backend, err = ParseBackend(input.HistoryBackend)
	if err != nil {
		return fmt.Errorf("invalid history backend: %w", err)
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Either clear command removes the whole SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath(cfg.OutputDir)
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if filepath.Clean(cachePath) == filepath.Clean(historyPath) {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputDir = strings.TrimSpace(input.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	cfg.RerunFile = input.RerunFile
	cfg.MetricsDocument = input.MetricsDocument
	cfg.Refresh = input.Refresh
	cfg.ShowMisses = input.Misses
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.MinFeatureCount < 1 {
		return fmt.Errorf("min-feature-count must be at least 1 (received %d)", input.MinFeatureCount)
	}
	cfg.MinFeatureCount = input.MinFeatureCount

	if input.SolveMaxYear < 0 {
		return fmt.Errorf("solve-max-year cannot be negative (received %d)", input.SolveMaxYear)
	}
	cfg.SolveMaxYear = input.SolveMaxYear

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	cfg.ExcludedKconfigPaths = splitList(input.ExcludeKconfig)
	return nil
}

// processExtractors parses the comma-separated extractor list, keeping its order.
func processExtractors(cfg *Config, input *ConfigRawInput) error {
	parts := splitList(input.Extractors)
	if len(parts) == 0 {
		cfg.Extractors = slices.Clone(schema.AllExtractors)
		return nil
	}
	cfg.Extractors = nil
	for _, p := range parts {
		e, err := schema.ParseExtractor(p)
		if err != nil {
			return err
		}
		if !slices.Contains(cfg.Extractors, e) {
			cfg.Extractors = append(cfg.Extractors, e)
		}
	}
	return nil
}

// processHistoryYears parses the history offsets in years.
func processHistoryYears(cfg *Config, input *ConfigRawInput) error {
	raw := input.HistoryYears
	if strings.TrimSpace(raw) == "" {
		raw = DefaultHistoryYears
	}
	cfg.HistoryYears = nil
	for _, p := range splitList(raw) {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid history year offset %q. must be a positive integer", p)
		}
		if !slices.Contains(cfg.HistoryYears, n) {
			cfg.HistoryYears = append(cfg.HistoryYears, n)
		}
	}
	slices.Sort(cfg.HistoryYears)
	return nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
