// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteFeatures prints the classification results using the configured output format.
func (ow *OutWriter) WriteFeatures(report schema.FeaturesReport, cfg *contract.Config, duration time.Duration) error {
	return WriteFeatures(report, cfg, duration)
}

// WriteCounts prints the model-count results using the configured output format.
func (ow *OutWriter) WriteCounts(report schema.CountsReport, cfg *contract.Config, duration time.Duration) error {
	return WriteCounts(report, cfg, duration)
}

// WriteSnapshot prints the dashboard metrics using the configured output format.
func (ow *OutWriter) WriteSnapshot(metrics schema.ProjectMetrics, cfg *contract.Config, duration time.Duration) error {
	return WriteSnapshot(metrics, cfg, duration)
}

// WriteRunSummary prints the summary of a complete run using the configured output format.
func (ow *OutWriter) WriteRunSummary(summary schema.RunSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteRunSummary(summary, cfg, duration)
}

// getTerminalWidth returns the width override, the detected terminal width or 80.
func getTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxTableTextWidth calculates the maximum width of the free-text column of
// a table (Kconfig paths, snapshot values) given the width of its fixed columns.
func getMaxTableTextWidth(cfg *contract.Config, fixedWidth int) int {
	// Reserve generous space for table borders, separators, and padding
	available := getTerminalWidth(cfg) - fixedWidth - 20
	if available < 15 {
		// Minimum reasonable text width
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
