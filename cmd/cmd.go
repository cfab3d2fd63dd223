// Package cmd defines the command-line interface for kmetrics.
package cmd

import (
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Artifact tree of the extraction run")
	rootCmd.PersistentFlags().String("extractors", "", "Comma-separated extractors to read: kconfigreader, kmax (default all)")
	rootCmd.PersistentFlags().String("exclude-kconfig", contract.DefaultExcludeKconfig, "Comma-separated Kconfig path substrings whose configs are ignored")
	rootCmd.PersistentFlags().Int("min-feature-count", contract.DefaultMinFeatureCount, "Smallest feature count that is reported")
	rootCmd.PersistentFlags().String("rerun-file", contract.DefaultRerunFile, "Extended-timeout solve table under the output directory (empty to disable)")
	rootCmd.PersistentFlags().Int("solve-max-year", 0, "Ignore model counts of revisions committed after this year (0 = no cap)")
	rootCmd.PersistentFlags().String("history-years", contract.DefaultHistoryYears, "Comma-separated years before the latest value shown in snapshots")
	rootCmd.PersistentFlags().String("metrics-document", contract.DefaultMetricsDocument, "Dashboard JSON document updated by the run command")
	rootCmd.PersistentFlags().Bool("refresh", false, "Recompute the feature classification instead of reusing the checkpoint")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics in textfile format to this path")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of featuresCmd to Viper
	featuresCmd.Flags().Bool("misses", false, "Print the configs the config grep or KClause may have missed")
	if err := viper.BindPFlags(featuresCmd.Flags()); err != nil {
		contract.LogFatal("Error binding features flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
