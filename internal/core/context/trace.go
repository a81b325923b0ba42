package context

import (
	"context"

	"portraits/internal/core/id"
)

// TraceContext identifies one unit of work: a CLI run or an HTTP request.
type TraceContext struct {
	RunID     string
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRunID returns run ID from context or empty string.
func GetRunID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RunID
	}
	return ""
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewRunContext creates a TraceContext for a CLI run.
func NewRunContext() *TraceContext {
	runID := id.New().String()
	return &TraceContext{
		RunID:   runID,
		TraceID: runID,
	}
}
