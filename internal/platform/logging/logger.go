package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a slog logger configured for Cloud Logging compatibility.
func NewLogger(service string) *slog.Logger {
	return newLogger(os.Stdout, service)
}

func newLogger(w io.Writer, service string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true})
	return slog.New(handler).With(slog.String("service", service))
}

// Discard returns a logger that drops every record. Intended for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithWeek attaches the week identifier to the logger context.
func WithWeek(logger *slog.Logger, weekID string) *slog.Logger {
	return logger.With(slog.String("week_id", weekID))
}
