package topic

import (
	"fmt"
)

// Constants defining the standard topic segments.
// These act as the wire contract between field agents and the fleet
// coordination plane. Changing these values strands deployed machines.
const (
	// SuffixTelemetry carries per-machine heartbeat/ack telemetry (Machine -> Fleet).
	// Structure: {root}/telemetry/{machineID}
	SuffixTelemetry = "telemetry"

	// SuffixFailsafe carries fail-safe actions decided by a machine (Machine -> Fleet).
	// Structure: {root}/failsafe/{machineID}
	SuffixFailsafe = "failsafe"

	// SuffixRestoration carries restoration protocols after connectivity recovers.
	// Structure: {root}/restoration/{machineID}
	SuffixRestoration = "restoration"

	// SuffixDiagnostic carries serialized diagnostic trouble code reports.
	// Structure: {root}/diagnostic/{machineID}
	SuffixDiagnostic = "diagnostic"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
// It keeps topic construction consistent across the entire project.
type Builder struct {
	// root is the base namespace for all topics (e.g., "agri/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Telemetry returns the topic a specific machine publishes its telemetry on.
func (b *Builder) Telemetry(machineID string) string {
	return b.build(SuffixTelemetry, machineID)
}

// TelemetryWildcard returns the filter matching telemetry from ALL machines.
// Result: {root}/telemetry/+
func (b *Builder) TelemetryWildcard() string {
	return b.build(SuffixTelemetry, Wildcard)
}

// Failsafe returns the topic a machine publishes fail-safe actions on.
func (b *Builder) Failsafe(machineID string) string {
	return b.build(SuffixFailsafe, machineID)
}

// Restoration returns the topic a machine publishes restoration protocols on.
func (b *Builder) Restoration(machineID string) string {
	return b.build(SuffixRestoration, machineID)
}

// Diagnostic returns the topic a machine publishes DTC reports on.
func (b *Builder) Diagnostic(machineID string) string {
	return b.build(SuffixDiagnostic, machineID)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
