package failsafe

import (
	"math"
)

// SafeOperatingEnvelope bounds what the machine may do under the current
// communication health. Derived, never stored: recomputed per call.
type SafeOperatingEnvelope struct {
	MaxAutonomousSpeed           float64 `json:"max_autonomous_speed_kmh"`
	MinSafetyZoneRadius          float64 `json:"min_safety_zone_radius_m"`
	ObstacleDetectionSensitivity float64 `json:"obstacle_detection_sensitivity"`
	EmergencyStopThreshold       float64 `json:"emergency_stop_threshold_m"`
}

// Envelope baselines at full connectivity, and the floors/ceilings applied
// after scaling.
const (
	baseAutonomousSpeedKmh   = 12.0
	baseSafetyZoneRadiusM    = 5.0
	baseDetectionSensitivity = 0.7
	baseEmergencyThresholdM  = 10.0

	// minAutonomousSpeedKmh keeps the machine creeping rather than stalled;
	// only the isolated modes stop it entirely.
	minAutonomousSpeedKmh = 2.0

	// Per-lost-peer compounding factors.
	lostPeerSpeedFactor  = 0.9
	lostPeerRadiusFactor = 1.2
)

// CalculateSafeOperatingEnvelope derives the operating bounds from a health
// snapshot and the number of concurrent autonomous operations. The
// connectivity penalty (1 - health score) scales everything linearly: speed
// and the emergency threshold shrink, the safety radius and detection
// sensitivity grow. Each lost peer compounds a further 10% speed cut and
// 20% radius expansion, and every operation past the first trims speed
// slightly. Speed never reaches zero here; full stops are the business of
// the isolated fail-safe modes.
func CalculateSafeOperatingEnvelope(health Health, activeOperations int) SafeOperatingEnvelope {
	penalty := 1.0 - health.OverallHealthScore
	if penalty < 0 {
		penalty = 0
	}

	env := SafeOperatingEnvelope{
		MaxAutonomousSpeed:           baseAutonomousSpeedKmh * (1.0 - 0.5*penalty),
		MinSafetyZoneRadius:          baseSafetyZoneRadiusM * (1.0 + penalty),
		ObstacleDetectionSensitivity: baseDetectionSensitivity * (1.0 + 0.4*penalty),
		EmergencyStopThreshold:       baseEmergencyThresholdM * (1.0 - 0.3*penalty),
	}

	lost := float64(len(health.LostPeers))
	env.MaxAutonomousSpeed *= math.Pow(lostPeerSpeedFactor, lost)
	env.MinSafetyZoneRadius *= math.Pow(lostPeerRadiusFactor, lost)

	if activeOperations > 1 {
		env.MaxAutonomousSpeed *= math.Pow(0.95, float64(activeOperations-1))
	}

	if env.MaxAutonomousSpeed < minAutonomousSpeedKmh {
		env.MaxAutonomousSpeed = minAutonomousSpeedKmh
	}
	if env.ObstacleDetectionSensitivity > 1.0 {
		env.ObstacleDetectionSensitivity = 1.0
	}

	return env
}
