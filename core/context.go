package core

import (
	"context"

	"github.com/spf13/afero"
)

// Context keys for pipeline options
type contextKey string

const (
	fsKey    contextKey = "fs"
	runIDKey contextKey = "runID"
)

// WithFs sets the filesystem artifacts and the metrics document are read from.
func WithFs(ctx context.Context, fs afero.Fs) context.Context {
	return context.WithValue(ctx, fsKey, fs)
}

// fsFromContext returns the filesystem from context, defaulting to the OS filesystem
func fsFromContext(ctx context.Context) afero.Fs {
	if fs, ok := ctx.Value(fsKey).(afero.Fs); ok && fs != nil {
		return fs
	}
	return afero.NewOsFs()
}

// withRunID stores the history run ID in the context
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the history run ID from context, 0 when not recording
func runIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(runIDKey).(int64)
	return id
}
