package tracing

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const runIDKey contextKey = "run_id"

// NewRunID returns a fresh identifier for one script run.
func NewRunID() string {
	return uuid.NewString()
}

// RunIDFromContext extracts the run ID from the context.
// Returns an empty string if no run ID is present.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRunID returns a new context carrying runID.
// If runID is empty, the original context is returned unchanged.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}
