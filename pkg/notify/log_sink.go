package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink records every message in the structured log. It always accepts.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("kind", msg.Kind),
		zap.String("subject", msg.Subject),
	}
	if msg.RequestID != "" {
		fields = append(fields, zap.String("request_id", msg.RequestID))
	}
	for k, v := range msg.Fields {
		fields = append(fields, zap.String(k, v))
	}
	s.logger.Info("notification", fields...)
	return nil
}
