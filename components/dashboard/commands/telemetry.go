package commands

import "github.com/goliatone/go-fundboard/components/dashboard"

// Telemetry receives one event per successful command.
type Telemetry = dashboard.Telemetry

// normalizeTelemetry falls back to a ZapTelemetry without a logger, which drops events.
func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return dashboard.ZapTelemetry{}
	}
	return t
}
