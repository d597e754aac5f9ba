package commands

import (
	"context"
	"maps"

	"github.com/goliatone/go-agency-dashboard/components/dashboard"
)

// Telemetry receives one event per successful command.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type discardTelemetry struct{}

func (discardTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry{}
	}
	return t
}

// record tags fields with the acting viewer before handing them to t.
func record(ctx context.Context, t Telemetry, event string, viewer dashboard.ViewerContext, fields map[string]any) {
	payload := make(map[string]any, len(fields)+2)
	maps.Copy(payload, fields)
	payload["user_id"] = viewer.UserID
	if viewer.Locale != "" {
		payload["locale"] = viewer.Locale
	}
	t.Record(ctx, event, payload)
}
