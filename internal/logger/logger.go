// Package logger re-exports the shared goLogger types so internal packages
// import one stable path.
package logger

import (
	"context"

	pkglogger "github.com/Bparsons0904/goLogger"
)

type Logger = pkglogger.Logger

var (
	New                = pkglogger.New
	ContextWithTraceID = pkglogger.ContextWithTraceID
	TraceIDFromContext = pkglogger.TraceIDFromContext
)

// NewWithContext creates a named logger carrying the trace ID from ctx, if any.
func NewWithContext(ctx context.Context, name string) Logger {
	return pkglogger.New(name).TraceFromContext(ctx)
}
