package failsafe

import (
	"testing"
)

func TestEnvelopeFullHealth(t *testing.T) {
	env := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 1.0}, 1)

	if env.MaxAutonomousSpeed != 12.0 {
		t.Errorf("MaxAutonomousSpeed = %v, want baseline 12", env.MaxAutonomousSpeed)
	}
	if env.MinSafetyZoneRadius != 5.0 {
		t.Errorf("MinSafetyZoneRadius = %v, want baseline 5", env.MinSafetyZoneRadius)
	}
	if env.ObstacleDetectionSensitivity != 0.7 {
		t.Errorf("ObstacleDetectionSensitivity = %v, want baseline 0.7", env.ObstacleDetectionSensitivity)
	}
	if env.EmergencyStopThreshold != 10.0 {
		t.Errorf("EmergencyStopThreshold = %v, want baseline 10", env.EmergencyStopThreshold)
	}
}

func TestEnvelopeDegradesWithScore(t *testing.T) {
	full := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 1.0}, 1)
	half := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 0.5}, 1)
	zero := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 0.0}, 1)

	if !(half.MaxAutonomousSpeed < full.MaxAutonomousSpeed) ||
		!(zero.MaxAutonomousSpeed < half.MaxAutonomousSpeed) {
		t.Error("speed must shrink as the score drops")
	}
	if !(half.MinSafetyZoneRadius > full.MinSafetyZoneRadius) ||
		!(zero.MinSafetyZoneRadius > half.MinSafetyZoneRadius) {
		t.Error("safety radius must grow as the score drops")
	}
	if !(half.ObstacleDetectionSensitivity > full.ObstacleDetectionSensitivity) {
		t.Error("detection sensitivity must grow as the score drops")
	}
	if !(half.EmergencyStopThreshold < full.EmergencyStopThreshold) {
		t.Error("emergency stop threshold must shrink as the score drops")
	}
}

func TestEnvelopeSpeedFloor(t *testing.T) {
	health := Health{
		OverallHealthScore: 0.0,
		LostPeers:          []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"},
	}
	env := CalculateSafeOperatingEnvelope(health, 6)

	if env.MaxAutonomousSpeed != 2.0 {
		t.Errorf("MaxAutonomousSpeed = %v, want floor 2.0", env.MaxAutonomousSpeed)
	}
	if env.MaxAutonomousSpeed <= 0 {
		t.Error("envelope speed must never reach zero")
	}
}

func TestEnvelopeLostPeerCompounding(t *testing.T) {
	none := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 0.8}, 1)
	one := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 0.8, LostPeers: []string{"t1"}}, 1)
	two := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 0.8, LostPeers: []string{"t1", "t2"}}, 1)

	if !(one.MaxAutonomousSpeed < none.MaxAutonomousSpeed) ||
		!(two.MaxAutonomousSpeed < one.MaxAutonomousSpeed) {
		t.Error("each lost peer must compound the speed cut")
	}
	if !(one.MinSafetyZoneRadius > none.MinSafetyZoneRadius) ||
		!(two.MinSafetyZoneRadius > one.MinSafetyZoneRadius) {
		t.Error("each lost peer must compound the radius expansion")
	}
}

func TestEnvelopeSensitivityCapped(t *testing.T) {
	// Score 0 with 0.4 uplift would exceed 1.0 unclamped only for high
	// baselines; verify the cap holds across the range anyway.
	env := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 0.0}, 1)
	if env.ObstacleDetectionSensitivity > 1.0 {
		t.Errorf("ObstacleDetectionSensitivity = %v, must cap at 1.0", env.ObstacleDetectionSensitivity)
	}
}

func TestEnvelopeConcurrentOperationsTrimSpeed(t *testing.T) {
	single := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 1.0}, 1)
	triple := CalculateSafeOperatingEnvelope(Health{OverallHealthScore: 1.0}, 3)

	if !(triple.MaxAutonomousSpeed < single.MaxAutonomousSpeed) {
		t.Error("concurrent operations must trim speed")
	}
	if triple.MinSafetyZoneRadius != single.MinSafetyZoneRadius {
		t.Error("operation count does not touch the safety radius")
	}
}
