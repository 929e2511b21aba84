package failsafe

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/agrolink-io/agrolink/pkg/log"
)

// Action is the controller's response to one communication-loss
// classification. Produced fresh on every call; not persisted.
type Action struct {
	ContinueOperations           bool     `json:"continue_operations"`
	Mode                         Mode     `json:"mode"`
	SpeedReductionFactor         float64  `json:"speed_reduction_factor"`
	SafetyMarginExpansionFactor  float64  `json:"safety_margin_expansion_factor"`
	SafetyActions                []string `json:"safety_actions"`
	RequiresOperatorIntervention bool     `json:"requires_operator_intervention"`
}

// RestorationProtocol lists the steps required to safely resume
// coordination after connectivity recovers.
type RestorationProtocol struct {
	StateSyncRequired                bool          `json:"state_sync_required"`
	CRDTMergeRequired                bool          `json:"crdt_merge_required"`
	VectorClockUpdateRequired        bool          `json:"vector_clock_update_required"`
	EmergencyValidationRequired      bool          `json:"emergency_validation_required"`
	GradualResumptionRequired        bool          `json:"gradual_resumption_required"`
	ExpandedSafetyZonesDuringRestore bool          `json:"expanded_safety_zones_during_restoration"`
	WorkProgressValidationRequired   bool          `json:"work_progress_validation_required"`
	EstimatedRestorationTime         time.Duration `json:"estimated_restoration_time"`
}

// actionTable is the fixed fail-safe policy: one deterministic response per
// classification. Loaded once at startup; never mutated.
var actionTable = map[LossClassification]Action{
	LossNominal: {
		ContinueOperations:          true,
		Mode:                        ModeFullConnectivity,
		SpeedReductionFactor:        1.0,
		SafetyMarginExpansionFactor: 1.0,
		SafetyActions: []string{
			"maintain routine communication monitoring",
		},
	},
	LossSingleTractor: {
		ContinueOperations:          true,
		Mode:                        ModeFullConnectivity,
		SpeedReductionFactor:        0.8,
		SafetyMarginExpansionFactor: 1.5,
		SafetyActions: []string{
			"expand safety margins around last known position of lost peer",
			"increase heartbeat broadcast rate",
			"flag lost peer to fleet coordination",
		},
	},
	LossMultipleTractor: {
		ContinueOperations:          true,
		Mode:                        ModeDegraded,
		SpeedReductionFactor:        0.5,
		SafetyMarginExpansionFactor: 2.0,
		SafetyActions: []string{
			"suspend cooperative field operations",
			"expand safety margins around all last known peer positions",
			"switch to conservative path planning",
		},
	},
	LossDegraded: {
		ContinueOperations:          true,
		Mode:                        ModeDegraded,
		SpeedReductionFactor:        0.7,
		SafetyMarginExpansionFactor: 1.8,
		SafetyActions: []string{
			"reduce message rate to essential traffic",
			"defer non-critical coordination tasks",
			"increase acknowledgement timeouts",
		},
	},
	LossCompleteNetwork: {
		ContinueOperations:           false,
		Mode:                         ModeIsolated,
		SpeedReductionFactor:         0.0,
		SafetyMarginExpansionFactor:  1.0,
		RequiresOperatorIntervention: true,
		SafetyActions: []string{
			"stop all autonomous operations",
			"raise implements",
			"engine idle",
			"activate visual and audible isolation beacon",
		},
	},
	LossEmergencyWithLoss: {
		ContinueOperations:           false,
		Mode:                         ModeEmergencyIsolated,
		SpeedReductionFactor:         0.0,
		SafetyMarginExpansionFactor:  1.0,
		RequiresOperatorIntervention: true,
		SafetyActions: []string{
			"execute emergency stop",
			"stop all autonomous operations",
			"raise implements",
			"engine idle",
			"broadcast emergency beacon on all available channels",
		},
	},
}

// conservativeAction is the fallback for any classification missing from
// the table: stop and demand intervention rather than defaulting to
// continued operation.
var conservativeAction = Action{
	ContinueOperations:           false,
	Mode:                         ModeIsolated,
	SpeedReductionFactor:         0.0,
	SafetyMarginExpansionFactor:  1.0,
	RequiresOperatorIntervention: true,
	SafetyActions: []string{
		"stop all autonomous operations",
		"raise implements",
		"engine idle",
	},
}

// Controller is the communication-loss fail-safe state machine. Its mode is
// mutated only through the internal transition function, driven by
// HandleCommunicationLoss and RestoreCommunication from a single control
// loop; readers take a snapshot via Mode.
type Controller struct {
	mu     sync.Mutex
	fsm    *fsm.FSM
	logger log.Logger
}

// NewController creates a controller starting in full connectivity.
func NewController(logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = logger.WithName("failsafe")
	return &Controller{
		fsm:    newModeFSM(ModeFullConnectivity, logger),
		logger: logger,
	}
}

// Mode returns a snapshot of the controller's current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Mode(c.fsm.Current())
}

// HandleCommunicationLoss looks up the deterministic response for a loss
// classification and transitions the persistent mode before returning the
// action. Re-deriving the same classification is idempotent: the same
// action comes back and the mode is unchanged.
func (c *Controller) HandleCommunicationLoss(ctx context.Context, classification LossClassification) Action {
	action, ok := actionTable[classification]
	if !ok {
		c.logger.Warn("Unknown loss classification, applying conservative action",
			"classification", string(classification))
		action = conservativeAction
	}

	c.transitionTo(ctx, action.Mode)

	// Hand the caller its own copy of the action list.
	action.SafetyActions = append([]string(nil), action.SafetyActions...)
	return action
}

// RestoreCommunication computes the restoration protocol for recovering
// from the current mode, then transitions back to full connectivity. The
// more severe the prior mode, the heavier the protocol.
func (c *Controller) RestoreCommunication(ctx context.Context) RestorationProtocol {
	previous := c.Mode()
	protocol := restorationFor(previous)

	c.transitionTo(ctx, ModeFullConnectivity)

	c.logger.Info("Communication restored",
		"previousMode", string(previous),
		"estimatedRestoration", protocol.EstimatedRestorationTime)

	return protocol
}

// restorationFor derives the restoration requirements from the mode being
// left behind.
func restorationFor(previous Mode) RestorationProtocol {
	switch previous {
	case ModeIsolated, ModeEmergencyIsolated:
		return RestorationProtocol{
			StateSyncRequired:                true,
			CRDTMergeRequired:                true,
			VectorClockUpdateRequired:        true,
			EmergencyValidationRequired:      true,
			GradualResumptionRequired:        true,
			ExpandedSafetyZonesDuringRestore: true,
			EstimatedRestorationTime:         45 * time.Second,
		}
	case ModeDegraded:
		return RestorationProtocol{
			StateSyncRequired:                true,
			CRDTMergeRequired:                true,
			VectorClockUpdateRequired:        true,
			EmergencyValidationRequired:      true,
			GradualResumptionRequired:        true,
			ExpandedSafetyZonesDuringRestore: true,
			WorkProgressValidationRequired:   true,
			EstimatedRestorationTime:         25 * time.Second,
		}
	default:
		return RestorationProtocol{
			StateSyncRequired:         true,
			VectorClockUpdateRequired: true,
			EstimatedRestorationTime:  10 * time.Second,
		}
	}
}

// transitionTo is the only code path that mutates the mode.
func (c *Controller) transitionTo(ctx context.Context, mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.fsm.Event(ctx, eventFor(mode))
	if isRealFSMError(err) {
		c.logger.Error(err, "Mode transition failed", "target", string(mode))
	}
}
