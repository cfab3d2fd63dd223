package contract

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It writes to stderr so stdout stays free
// for table, CSV, JSON and MCP output.
var Log = NewLogger(os.Stderr)

// NewLogger creates a text logger with full timestamps.
func NewLogger(out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(logrus.InfoLevel)
	return log
}

// ParseLogLevel validates a log level name.
func ParseLogLevel(level string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	return lvl, nil
}

// ConfigureLogging applies the configured level to the process-wide logger.
func ConfigureLogging(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	Log.SetLevel(lvl)
	return nil
}
