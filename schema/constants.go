package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string

	// ConfigType represents the declared Kconfig type of a config symbol.
	ConfigType string

	// MetricName represents a dashboard metric key.
	MetricName string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Config types that widen the configuration space of an unconstrained feature.
const (
	BoolType     ConfigType = "bool"     // doubles the space
	TristateType ConfigType = "tristate" // triples the space
)

// Dashboard metric keys.
const (
	TotalFeaturesMetric  MetricName = "total-features"
	FeaturesMetric       MetricName = "features"
	SourceLinesMetric    MetricName = "source_lines_of_code"
	ModelCountMetric     MetricName = "model-count"
	ModelCountTimeMetric MetricName = "model-count-time"
)

// Stage names of the extraction pipeline that produced the artifacts.
const (
	KconfigStage       = "kconfig"
	ArchitecturesStage = "read-linux-architectures"
	ConfigsStage       = "read-linux-configs"
	DimacsStage        = "dimacs"
	BackboneStage      = "backbone-dimacs"
	SolveStage         = "solve_model-count"
)

// AllProject is the project key that aggregates every architecture.
const AllProject = "linux/all"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ProjectKey returns the dashboard project key of an architecture.
func ProjectKey(architecture string) string {
	return "linux/" + architecture
}
