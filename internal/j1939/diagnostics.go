package j1939

import (
	"sort"
	"sync/atomic"
	"time"
)

// DTCSeverity classifies how urgently a trouble code needs attention.
type DTCSeverity string

const (
	SeverityWarning  DTCSeverity = "warning"
	SeverityCritical DTCSeverity = "critical"
)

// FMIWorstCase is the failure mode identifier that always escalates a code
// to critical.
const FMIWorstCase uint8 = 15

// Well-known suspect parameter numbers.
const (
	// SPNCoolantTemperature is safety critical: an overheating engine on an
	// autonomous machine cannot wait for the next service window.
	SPNCoolantTemperature uint32 = 110

	// SPNEngineSpeed covers engine speed faults.
	SPNEngineSpeed uint32 = 190

	// equipmentSPNBase starts the proprietary band used for
	// equipment-specific codes, outside the standard SPN range.
	equipmentSPNBase uint32 = 520192
)

// DTC is a structured diagnostic trouble code.
type DTC struct {
	SPN                     uint32
	FMI                     uint8
	OccurrenceCount         int
	SourceAddress           uint8
	Severity                DTCSeverity
	RequiresImmediateAction bool

	// PriorityLevel orders codes for operator attention: 1 is highest, 5 lowest.
	PriorityLevel int

	// Equipment-specific extensions; empty for standard codes.
	EquipmentType     string
	FaultCategory     string
	RecommendedAction string

	Timestamp time.Time
}

// safetyCriticalSPNs and safetyCriticalAddresses are fixed policy tables
// loaded once at startup.
var safetyCriticalSPNs = map[uint32]bool{
	SPNCoolantTemperature: true,
}

// Source addresses whose faults are always treated as safety critical:
// the engine controller and the brake controller.
var safetyCriticalAddresses = map[uint8]bool{
	0x00: true,
	0x0B: true,
}

// Recommended actions for equipment-specific fault categories.
var recommendedActions = map[string]string{
	"hydraulic_pressure":  "stop implement operation and inspect hydraulic lines",
	"implement_blockage":  "raise implement and clear the blockage before resuming",
	"guidance_deviation":  "re-baseline the guidance line and verify GNSS fix",
	"seed_flow":           "check seed meter and clear the delivery tubes",
	"spray_nozzle":        "flush the affected nozzle and verify application rate",
}

const fallbackRecommendedAction = "consult equipment manual"

// DiagnosticManager synthesizes and prioritizes trouble codes. The equipment
// code sequence is its only internal state and is safe for concurrent
// generation; every generated DTC is owned by the caller.
type DiagnosticManager struct {
	equipmentSeq atomic.Uint32
}

// NewDiagnosticManager creates a diagnostic manager.
func NewDiagnosticManager() *DiagnosticManager {
	return &DiagnosticManager{}
}

// GenerateDTC builds a standard trouble code. Codes with the worst-case
// failure mode, a safety-critical suspect parameter, or a safety-critical
// source address are marked critical with the highest priority and require
// immediate action; everything else is a priority-3 warning.
func (m *DiagnosticManager) GenerateDTC(spn uint32, fmi uint8, occurrenceCount int, sourceAddress uint8) DTC {
	dtc := DTC{
		SPN:             spn,
		FMI:             fmi,
		OccurrenceCount: occurrenceCount,
		SourceAddress:   sourceAddress,
		Severity:        SeverityWarning,
		PriorityLevel:   3,
		Timestamp:       time.Now(),
	}

	if fmi == FMIWorstCase || safetyCriticalSPNs[spn] || safetyCriticalAddresses[sourceAddress] {
		dtc.Severity = SeverityCritical
		dtc.PriorityLevel = 1
		dtc.RequiresImmediateAction = true
	}

	return dtc
}

// GenerateEquipmentDTC builds an equipment-specific trouble code outside
// the standard SPN range, attaching a deterministic recommended action
// looked up by fault category.
func (m *DiagnosticManager) GenerateEquipmentDTC(equipmentType, faultCategory string, severity DTCSeverity, description string) DTC {
	seq := m.equipmentSeq.Add(1)

	action, ok := recommendedActions[faultCategory]
	if !ok {
		action = fallbackRecommendedAction
	}

	dtc := DTC{
		SPN:               equipmentSPNBase + seq,
		FMI:               FMIWorstCase,
		OccurrenceCount:   1,
		Severity:          severity,
		PriorityLevel:     3,
		EquipmentType:     equipmentType,
		FaultCategory:     faultCategory,
		RecommendedAction: action,
		Timestamp:         time.Now(),
	}

	if severity == SeverityCritical {
		dtc.PriorityLevel = 1
		dtc.RequiresImmediateAction = true
	}

	return dtc
}

// Prioritize orders the codes by ascending priority level (1 first). The
// sort is stable: ties preserve input order.
func (m *DiagnosticManager) Prioritize(dtcs []DTC) []DTC {
	out := append([]DTC(nil), dtcs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityLevel < out[j].PriorityLevel
	})
	return out
}

// SafetyCritical reports whether the code must propagate to the fail-safe
// controller's health classification.
func (d DTC) SafetyCritical() bool {
	return d.Severity == SeverityCritical && d.RequiresImmediateAction
}
