package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/swimteam-scheduler/internal/logging"
	"github.com/example/swimteam-scheduler/internal/recurrence"
	"github.com/example/swimteam-scheduler/internal/rotation"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, rotation.ErrEmptyRoster):
		return "empty_roster"
	case errors.Is(err, rotation.ErrUnknownMember):
		return "unknown_member"
	case errors.Is(err, rotation.ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, recurrence.ErrInvalidPattern):
		return "invalid_pattern"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "internal"
}
