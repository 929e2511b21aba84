package j1939

// Subsystem names used by message producers when asking for a priority.
const (
	SubsystemEmergencyStop      = "emergency_stop"
	SubsystemCollisionAvoidance = "collision_avoidance"
	SubsystemEngineData         = "engine_data"
	SubsystemHydraulics         = "hydraulics"
	SubsystemImplementStatus    = "implement_status"
	SubsystemPosition           = "position"
	SubsystemStatusUpdate       = "status_update"
)

// PriorityLowest is the fallback for subsystems not in the table; it is the
// priority of routine status updates.
const PriorityLowest uint8 = 7

// subsystemPriorities is fixed policy loaded once at startup. The fail-safe
// controller relies on emergency traffic always winning arbitration, so the
// zero entries must never be overridden at runtime.
var subsystemPriorities = map[string]uint8{
	SubsystemEmergencyStop:      0,
	SubsystemCollisionAvoidance: 0,
	SubsystemEngineData:         3,
	SubsystemHydraulics:         4,
	SubsystemImplementStatus:    5,
	SubsystemPosition:           6,
	SubsystemStatusUpdate:       7,
}

// PriorityFor returns the bus arbitration priority (0 = highest, 7 = lowest)
// for a logical subsystem. The lookup is total: unknown subsystem names get
// the lowest priority rather than an error.
func PriorityFor(subsystem string) uint8 {
	if p, ok := subsystemPriorities[subsystem]; ok {
		return p
	}
	return PriorityLowest
}
