package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile stamps the run completion time and writes every metric of the
// registry to path in the Prometheus text format. An empty path is a no-op.
func WriteTextfile(path string, now time.Time) error {
	if path == "" {
		return nil
	}
	LastRunTimestamp.Set(float64(now.Unix()))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
