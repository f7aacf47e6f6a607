package http

import (
	"context"
	"log/slog"

	"github.com/example/worktime/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// LoggerFromContext returns the request logger attached by RequestLogger, or
// nil outside a request.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// requestLogger prefers the request-scoped logger over fallback.
func requestLogger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return defaultLogger(fallback)
}

// handlerLogger names the handler and operation on top of the request
// logger, which already carries request_id, client_ip and principal_id.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, len(attrs)+4)
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return requestLogger(ctx, fallback).With(append(pairs, attrs...)...)
}
