package failsafe

import (
	"context"
	"testing"
	"time"
)

func TestHandleCommunicationLoss(t *testing.T) {
	tests := []struct {
		name             string
		classification   LossClassification
		wantContinue     bool
		wantMode         Mode
		wantSpeedFactor  float64
		wantMarginFactor float64
		wantOperator     bool
	}{
		{"nominal", LossNominal, true, ModeFullConnectivity, 1.0, 1.0, false},
		{"single tractor", LossSingleTractor, true, ModeFullConnectivity, 0.8, 1.5, false},
		{"multiple tractors", LossMultipleTractor, true, ModeDegraded, 0.5, 2.0, false},
		{"degraded connectivity", LossDegraded, true, ModeDegraded, 0.7, 1.8, false},
		{"complete network", LossCompleteNetwork, false, ModeIsolated, 0.0, 1.0, true},
		{"emergency with loss", LossEmergencyWithLoss, false, ModeEmergencyIsolated, 0.0, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(nil)
			action := c.HandleCommunicationLoss(context.Background(), tt.classification)

			if action.ContinueOperations != tt.wantContinue {
				t.Errorf("ContinueOperations = %v, want %v", action.ContinueOperations, tt.wantContinue)
			}
			if action.Mode != tt.wantMode {
				t.Errorf("action Mode = %s, want %s", action.Mode, tt.wantMode)
			}
			if action.SpeedReductionFactor != tt.wantSpeedFactor {
				t.Errorf("SpeedReductionFactor = %v, want %v", action.SpeedReductionFactor, tt.wantSpeedFactor)
			}
			if action.SafetyMarginExpansionFactor != tt.wantMarginFactor {
				t.Errorf("SafetyMarginExpansionFactor = %v, want %v", action.SafetyMarginExpansionFactor, tt.wantMarginFactor)
			}
			if action.RequiresOperatorIntervention != tt.wantOperator {
				t.Errorf("RequiresOperatorIntervention = %v, want %v", action.RequiresOperatorIntervention, tt.wantOperator)
			}
			if len(action.SafetyActions) == 0 {
				t.Error("every action carries at least one safety step")
			}
			if c.Mode() != tt.wantMode {
				t.Errorf("controller Mode = %s, want %s", c.Mode(), tt.wantMode)
			}
		})
	}
}

func TestHandleCommunicationLossIdempotent(t *testing.T) {
	c := NewController(nil)
	ctx := context.Background()

	first := c.HandleCommunicationLoss(ctx, LossMultipleTractor)
	second := c.HandleCommunicationLoss(ctx, LossMultipleTractor)

	if first.SpeedReductionFactor != second.SpeedReductionFactor ||
		first.Mode != second.Mode ||
		len(first.SafetyActions) != len(second.SafetyActions) {
		t.Error("re-deriving the same classification must return the same action")
	}
	if c.Mode() != ModeDegraded {
		t.Errorf("Mode = %s, want degraded", c.Mode())
	}
}

func TestHandleCommunicationLossUnknownClassification(t *testing.T) {
	c := NewController(nil)
	action := c.HandleCommunicationLoss(context.Background(), LossClassification("made_up"))

	if action.ContinueOperations {
		t.Error("unknown classification must not continue operations")
	}
	if !action.RequiresOperatorIntervention {
		t.Error("unknown classification must demand operator intervention")
	}
	if c.Mode() != ModeIsolated {
		t.Errorf("Mode = %s, want isolated fallback", c.Mode())
	}
}

func TestActionListIsCallerOwned(t *testing.T) {
	c := NewController(nil)
	ctx := context.Background()

	first := c.HandleCommunicationLoss(ctx, LossCompleteNetwork)
	first.SafetyActions[0] = "mutated"

	second := c.HandleCommunicationLoss(ctx, LossCompleteNetwork)
	if second.SafetyActions[0] == "mutated" {
		t.Error("returned action list must not alias the policy table")
	}
}

func TestRestoreCommunication(t *testing.T) {
	tests := []struct {
		name           string
		classification LossClassification
		wantEstimate   time.Duration
		wantEmergency  bool
		wantProgress   bool
	}{
		{"from isolated", LossCompleteNetwork, 45 * time.Second, true, false},
		{"from emergency isolated", LossEmergencyWithLoss, 45 * time.Second, true, false},
		{"from degraded", LossMultipleTractor, 25 * time.Second, true, true},
		{"from full connectivity", LossSingleTractor, 10 * time.Second, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(nil)
			ctx := context.Background()
			c.HandleCommunicationLoss(ctx, tt.classification)

			protocol := c.RestoreCommunication(ctx)

			if !protocol.StateSyncRequired {
				t.Error("state sync is always required on restoration")
			}
			if protocol.EstimatedRestorationTime != tt.wantEstimate {
				t.Errorf("EstimatedRestorationTime = %s, want %s", protocol.EstimatedRestorationTime, tt.wantEstimate)
			}
			if protocol.EmergencyValidationRequired != tt.wantEmergency {
				t.Errorf("EmergencyValidationRequired = %v, want %v", protocol.EmergencyValidationRequired, tt.wantEmergency)
			}
			if protocol.WorkProgressValidationRequired != tt.wantProgress {
				t.Errorf("WorkProgressValidationRequired = %v, want %v", protocol.WorkProgressValidationRequired, tt.wantProgress)
			}
			if c.Mode() != ModeFullConnectivity {
				t.Errorf("Mode = %s, want full connectivity after restoration", c.Mode())
			}
		})
	}
}
