// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
)

// logger is swapped for the application logger by SetLogger during bootstrap.
var logger = slog.Default()

// SetLogger routes component loggers through l.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// LogWrite logs a create, update or delete against the table at debug level.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, id uint) {
	logger.DebugContext(ctx, "repository write",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.Any("id", id),
	)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// ServiceLogger scopes log lines to one service.
type ServiceLogger struct {
	service string
}

// NewServiceLogger returns a logger tagged with the service name.
func NewServiceLogger(service string) *ServiceLogger {
	return &ServiceLogger{service: service}
}

// Info logs a service event.
func (l *ServiceLogger) Info(ctx context.Context, msg string, attrs ...any) {
	logger.InfoContext(ctx, msg, append([]any{slog.String("service", l.service)}, attrs...)...)
}

// Warn logs a recoverable service problem, such as a failed cache write.
func (l *ServiceLogger) Warn(ctx context.Context, msg string, attrs ...any) {
	logger.WarnContext(ctx, msg, append([]any{slog.String("service", l.service)}, attrs...)...)
}

// Error logs a service failure.
func (l *ServiceLogger) Error(ctx context.Context, msg string, err error, attrs ...any) {
	all := append([]any{slog.String("service", l.service), slog.String("error", err.Error())}, attrs...)
	logger.ErrorContext(ctx, msg, all...)
}
