// Package logger wraps log/slog with the handler selection and the
// booking-specific helpers used across the service.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.  LOG_LEVEL selects the level;
// env "prod" selects JSON output, anything else text.
func New(env string) *Logger {
	return NewWithWriter(os.Stdout, env, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter is New with an explicit destination and level string.
func NewWithWriter(w io.Writer, env, level string) *Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}
	var h slog.Handler
	if strings.EqualFold(env, "prod") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// Discard returns a logger that drops everything.  Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogBookingConfirmed records a confirmed booking.
func (l *Logger) LogBookingConfirmed(ctx context.Context, bookingID, tripID string, userID uint64, seats []int, total int64) {
	l.InfoContext(ctx, "booking confirmed",
		slog.String("booking_id", bookingID),
		slog.String("trip_id", tripID),
		slog.Uint64("user_id", userID),
		slog.Any("seats", seats),
		slog.Int64("total_amount", total),
	)
}

// LogSeatConflict records a confirmation that lost a seat to another
// booking.
func (l *Logger) LogSeatConflict(ctx context.Context, sessionID, tripID string, seats []int) {
	l.WarnContext(ctx, "seat conflict on confirmation",
		slog.String("session_id", sessionID),
		slog.String("trip_id", tripID),
		slog.Any("seats", seats),
	)
}

// LogBookingCancelled records an admin cancellation.
func (l *Logger) LogBookingCancelled(ctx context.Context, bookingID string, adminID uint64) {
	l.InfoContext(ctx, "booking cancelled",
		slog.String("booking_id", bookingID),
		slog.Uint64("admin_id", adminID),
	)
}

// ErrorWithContext logs err with a message and extra attributes.
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, args ...any) {
	l.ErrorContext(ctx, msg, append([]any{slog.String("error", err.Error())}, args...)...)
}
