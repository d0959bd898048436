package dashboard

import (
	"context"

	"go.uber.org/zap"
)

// Telemetry records admin events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry records events as debug log entries.
type ZapTelemetry struct {
	Logger *zap.Logger
}

// Record implements Telemetry.
func (z ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	if z.Logger == nil {
		return
	}
	z.Logger.Debug(event, zap.Any("payload", payload))
}

func normalizeLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
