// Package logging defines a minimal structured-logging interface used across
// the project. Implementations wrap slog or zerolog.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs a message useful only while developing.
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

// Supported backends.
const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// New builds a JSON logger writing to w. Unknown backends fall back to slog.
func New(backend string, w io.Writer) Logger {
	switch backend {
	case BackendZerolog:
		return NewZerologLogger(zerolog.New(w).With().Timestamp().Logger())
	default:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil)))
	}
}
