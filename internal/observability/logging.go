// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
)

// LogAsyncOperationStart logs the start of work running outside a request.
func LogAsyncOperationStart(ctx context.Context, operation string, attrs ...any) {
	slog.InfoContext(ctx, "async operation started",
		append([]any{slog.String("operation", operation), slog.String("type", "async_start")}, attrs...)...)
}

// LogAsyncOperationEnd logs the completion of work running outside a request.
func LogAsyncOperationEnd(ctx context.Context, operation string, attrs ...any) {
	slog.InfoContext(ctx, "async operation completed",
		append([]any{slog.String("operation", operation), slog.String("type", "async_end")}, attrs...)...)
}

// LogAsyncOperationError logs a failure of work running outside a request.
func LogAsyncOperationError(ctx context.Context, operation string, err error, attrs ...any) {
	slog.ErrorContext(ctx, "async operation failed",
		append([]any{
			slog.String("operation", operation),
			slog.String("type", "async_error"),
			slog.String("error", err.Error()),
		}, attrs...)...)
}
