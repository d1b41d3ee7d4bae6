package http

import (
	"context"
	"log/slog"

	"github.com/example/swimteam-scheduler/internal/logging"
)

type contextKey string

const (
	memberIDContextKey  contextKey = "member_id"
	sessionIDContextKey contextKey = "session_id"
)

// ContextWithMemberID injects the member identifier resolved from the request path.
func ContextWithMemberID(ctx context.Context, memberID int64) context.Context {
	return context.WithValue(ctx, memberIDContextKey, memberID)
}

// MemberIDFromContext extracts a member identifier previously associated with the context.
func MemberIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(memberIDContextKey).(int64)
	return id, ok
}

// ContextWithSessionID injects the session identifier resolved from the request path.
func ContextWithSessionID(ctx context.Context, sessionID int64) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext extracts a session identifier previously associated with the context.
func SessionIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(int64)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a request scoped logger from the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
