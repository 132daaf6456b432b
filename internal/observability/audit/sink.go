package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

// LogSink writes every pipeline event as one structured log record.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, event domain.AuditEvent) {
	level := slog.LevelInfo
	if event.Outcome == domain.AuditFailure {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("stage", string(event.Stage)),
		slog.String("outcome", string(event.Outcome)),
		slog.String("industry_id", event.IndustryID),
		slog.String("data_type", string(event.DataType)),
		slog.String("timestamp", event.Timestamp.Format(time.RFC3339Nano)),
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	s.logger.LogAttrs(ctx, level, "noise_data_audit", attrs...)
}

// Multi fans one event out to every sink, in order.
type Multi []ports.AuditSink

func (m Multi) Record(ctx context.Context, event domain.AuditEvent) {
	for _, sink := range m {
		if sink != nil {
			sink.Record(ctx, event)
		}
	}
}
