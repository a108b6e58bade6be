// Package observability provides audit logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for audit records.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// AuditLogger records admin actions as structured JSON lines, independent of
// the request log format.
type AuditLogger struct {
	logger *Logger
}

// NewAuditLogger creates an AuditLogger writing to GlobalLogger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{logger: GlobalLogger}
}

// LogAdminAction records that actorID applied action to a target.
func (l *AuditLogger) LogAdminAction(ctx context.Context, actorID uint, action, targetType string, targetID uint, fields map[string]interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	attrs := []any{
		slog.String("type", "audit"),
		slog.Uint64("actor_id", uint64(actorID)),
		slog.String("action", action),
		slog.String("target_type", targetType),
		slog.Uint64("target_id", uint64(targetID)),
	}
	if span := ExtractSpanTraceID(ctx); span != "" {
		attrs = append(attrs, slog.String("trace_id", span))
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "admin action", attrs...)
}
