package failsafe

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/agrolink-io/agrolink/internal/pkg/metrics"
	fsmutil "github.com/agrolink-io/agrolink/internal/pkg/util/fsm"
	"github.com/agrolink-io/agrolink/pkg/log"
)

// Mode is the controller's safety posture. It is the only piece of state
// the fail-safe subsystem persists across calls.
type Mode string

const (
	ModeFullConnectivity  Mode = "full_connectivity"
	ModeDegraded          Mode = "degraded"
	ModeIsolated          Mode = "isolated"
	ModeEmergencyIsolated Mode = "emergency_isolated"
)

// Transition events. Any mode may move to any other; the fail-safe policy
// tables decide which event fires.
const (
	eventRecover   = "event_recover"
	eventDegrade   = "event_degrade"
	eventIsolate   = "event_isolate"
	eventEmergency = "event_emergency"
)

var allModes = []string{
	string(ModeFullConnectivity),
	string(ModeDegraded),
	string(ModeIsolated),
	string(ModeEmergencyIsolated),
}

// modeGaugeValue maps modes to the enum gauge exported for operators.
var modeGaugeValue = map[Mode]float64{
	ModeFullConnectivity:  0,
	ModeDegraded:          1,
	ModeIsolated:          2,
	ModeEmergencyIsolated: 3,
}

// eventFor returns the transition event that moves the machine into mode.
func eventFor(mode Mode) string {
	switch mode {
	case ModeDegraded:
		return eventDegrade
	case ModeIsolated:
		return eventIsolate
	case ModeEmergencyIsolated:
		return eventEmergency
	default:
		return eventRecover
	}
}

// newModeFSM builds the mode state machine. Entering a state updates the
// exported mode gauge and transition counter.
func newModeFSM(initial Mode, logger log.Logger) *fsm.FSM {
	events := fsm.Events{
		{Name: eventRecover, Src: allModes, Dst: string(ModeFullConnectivity)},
		{Name: eventDegrade, Src: allModes, Dst: string(ModeDegraded)},
		{Name: eventIsolate, Src: allModes, Dst: string(ModeIsolated)},
		{Name: eventEmergency, Src: allModes, Dst: string(ModeEmergencyIsolated)},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(func(ctx context.Context, e *fsm.Event) error {
			mode := Mode(e.Dst)
			metrics.FailsafeMode.Set(modeGaugeValue[mode])
			metrics.ModeTransitionsTotal.WithLabelValues(e.Dst).Inc()
			logger.Info("Fail-safe mode transition", "from", e.Src, "to", e.Dst, "event", e.Event)
			return nil
		}),
	}

	return fsm.NewFSM(string(initial), events, callbacks)
}

// isRealFSMError filters out fsm's "no transition" results, which are
// expected when a tick re-derives the mode the machine is already in.
func isRealFSMError(err error) bool {
	if err == nil {
		return false
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError

	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}

	return true
}
