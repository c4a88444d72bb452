// Package logging defines the structured-logging interface used across the
// console and its slog-backed implementation.
//
// The terminal belongs to the REPL and the board UI, so log records go to a
// file (or any io.Writer) chosen at startup, never to stdout.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "reconciled", "collection", "boussole", "items", n)
type Logger interface {
	// Debug logs verbose diagnostics (request ids, timings).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
