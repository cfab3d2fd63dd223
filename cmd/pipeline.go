package cmd

import (
	"github.com/huangsam/kmetrics/core"
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/spf13/cobra"
)

// executorCmd builds a pipeline command around one of the core executors.
func executorCmd(use, short, long, failure string, exec core.ExecutorFunc) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		Args:    cobra.NoArgs,
		PreRunE: sharedSetupWrapper,
		Run: func(_ *cobra.Command, _ []string) {
			if err := exec(rootCtx, cfg, cacheManager); err != nil {
				contract.LogFatal(failure, err)
			}
		},
	}
}

// runCmd runs the whole pipeline and merges the dashboard metrics.
var runCmd = executorCmd("run",
	"Compute every metric and merge it into the metrics document.",
	`Classify every extracted model, normalize the model counts and merge the rendered
metrics into the dashboard document.

Existing keys of the document outside the written metrics are preserved, and a
missing document is created.

Examples:
  # Compute the metrics of the default output directory
  kmetrics run

  # Read another extraction run and write the document elsewhere
  kmetrics run --output-dir output-linux-2024 --metrics-document init.json

  # Ignore the cached classification
  kmetrics run --refresh`,
	"Cannot run the metrics pipeline", core.ExecuteRun)

// featuresCmd prints the feature descriptors.
var featuresCmd = executorCmd("features",
	"Show the classified features of every extracted model.",
	`Classify the variables of every (extractor, revision, architecture) model and print
the per-model feature counts, the per-revision totals and the extractor agreement.

Examples:
  # Print the descriptors as a table
  kmetrics features

  # Only classify the KClause models
  kmetrics features --extractors kmax

  # Include the cross-validation of the config grep against KClause
  kmetrics features --misses

  # Export every descriptor column to CSV
  kmetrics features --output csv --output-file descriptors.csv`,
	"Cannot classify features", core.ExecuteFeatures)

// countsCmd prints the normalized model counts.
var countsCmd = executorCmd("counts",
	"Show the normalized model counts and the revision totals.",
	`Join the solver results with the feature descriptors, reintroduce the unconstrained
variables and sum the configuration-space size of each revision.

Examples:
  # Print the model counts as tables
  kmetrics counts

  # Only count revisions committed up to 2020
  kmetrics counts --solve-max-year 2020

  # Ignore the extended-timeout rerun table
  kmetrics counts --rerun-file ""`,
	"Cannot normalize model counts", core.ExecuteCounts)

// snapshotCmd prints the dashboard metrics without writing them.
var snapshotCmd = executorCmd("snapshot",
	"Show the dashboard metrics without touching the metrics document.",
	`Render the latest value and the multi-year history of every dashboard metric.

Examples:
  # Print the snapshots as a table
  kmetrics snapshot

  # Compare against one and three years before
  kmetrics snapshot --history-years 1,3 --output json`,
	"Cannot render metric snapshots", core.ExecuteSnapshot)
