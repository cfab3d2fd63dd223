package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Label constants for upper-bound status.
const (
	ExactValue      = "Exact"
	LowerBoundValue = "Lower bound"
	UnknownValue    = "n/a"
)

// Color variables for console output.
var (
	ExactColor      = color.New(color.FgGreen)              // every architecture was counted
	LowerBoundColor = color.New(color.FgYellow, color.Bold) // some architectures timed out
	MissingColor    = color.New(color.FgHiBlack)            // nothing to report
)

// GetPlainBoundLabel returns the plain label for an aggregate total.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainBoundLabel(isUpperBound, measured bool) string {
	switch {
	case !measured:
		return UnknownValue
	case isUpperBound:
		return ExactValue
	default:
		return LowerBoundValue
	}
}

// GetColorBoundLabel returns a colored label for console output (table).
func GetColorBoundLabel(isUpperBound, measured bool) string {
	text := GetPlainBoundLabel(isUpperBound, measured)

	switch text {
	case ExactValue:
		return ExactColor.Sprint(text)
	case LowerBoundValue:
		return LowerBoundColor.Sprint(text)
	default:
		return MissingColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Log.WithError(err).Fatalf("Fatal %s", msg)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	Log.WithError(err).Warnf("Warn %s", msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for checkpoint storage.
// The checkpoint lives next to the artifacts it was computed from.
func GetCacheDBFilePath(outputDir string) string {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	return filepath.Join(outputDir, "linux-features.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".kmetrics_history.db"
	}
	return filepath.Join(homeDir, ".kmetrics_history.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is space for the ellipsis and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
