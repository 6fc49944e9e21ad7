package http

import (
	"context"
	"log/slog"

	"github.com/AntonioRamos11/RestaurantIA/internal/logging"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	operatorContextKey  contextKey = "operator"
)

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithRequestID stores the identifier assigned by RequestLogger.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext extracts the request identifier if one was assigned.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

// ContextWithOperator marks the request as authenticated with the operator key.
func ContextWithOperator(ctx context.Context) context.Context {
	return context.WithValue(ctx, operatorContextKey, true)
}

// IsOperator reports whether RequireOperator admitted the request with a key.
func IsOperator(ctx context.Context) bool {
	ok, _ := ctx.Value(operatorContextKey).(bool)
	return ok
}
