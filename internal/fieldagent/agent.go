package fieldagent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrolink-io/agrolink/internal/failsafe"
	"github.com/agrolink-io/agrolink/internal/fieldagent/archive"
	"github.com/agrolink-io/agrolink/internal/fieldagent/server"
	"github.com/agrolink-io/agrolink/internal/j1939"
	"github.com/agrolink-io/agrolink/internal/pkg/metrics"
	"github.com/agrolink-io/agrolink/pkg/log"
	"github.com/agrolink-io/agrolink/pkg/mqtt"
	"github.com/agrolink-io/agrolink/pkg/mqtt/topic"
	"github.com/agrolink-io/agrolink/pkg/options"
)

// Status is the agent's externally visible state, served on /v1/status and
// rendered by alink-fieldctl.
type Status struct {
	MachineID      string                         `json:"machine_id"`
	ClaimedAddress *uint8                         `json:"claimed_address"`
	Mode           failsafe.Mode                  `json:"mode"`
	Health         failsafe.Health                `json:"health"`
	Envelope       failsafe.SafeOperatingEnvelope `json:"envelope"`
	LastAction     *failsafe.Action               `json:"last_action,omitempty"`
	ActiveDTCs     []j1939.DTC                    `json:"active_dtcs"`
	Throughput     j1939.Throughput               `json:"throughput"`
	Timestamp      time.Time                      `json:"timestamp"`
}

// diagnosticReport is the payload published on the diagnostic topic when
// the agent suspends operations with active trouble codes.
type diagnosticReport struct {
	MachineID  string      `json:"machine_id"`
	CapturedAt time.Time   `json:"captured_at"`
	Codes      []j1939.DTC `json:"codes"`
}

// Agent runs one machine's protocol stack, health monitor, and fail-safe
// controller, bridging them to the fleet over MQTT and serving local status
// over HTTP.
type Agent struct {
	machineID        string
	preferredAddress uint8
	interval         time.Duration
	httpOptions      *options.HttpOptions

	stack      *j1939.Stack
	monitor    *failsafe.Monitor
	controller *failsafe.Controller
	telemetry  *TelemetryStore
	mc         mqtt.Client
	topics     *topic.Builder
	archive    *archive.Archive

	// activeOperations is the count of concurrent field operations this
	// machine participates in, fed into envelope calculation. Fixed at one
	// until the task planner lands.
	activeOperations int

	mu                 sync.RWMutex
	lastHealth         failsafe.Health
	lastAction         *failsafe.Action
	lastClassification failsafe.LossClassification
}

// Run starts all agent loops and blocks until the context is cancelled or a
// component fails.
func (a *Agent) Run(ctx context.Context) error {
	logger := log.WithName("agent").WithValues("machineID", a.machineID)

	claim := a.stack.Arbiter().ClaimAddress(a.preferredAddress)
	logger.Info("Broadcast address claim",
		"address", a.preferredAddress, "canID", claim.CANID())

	if err := a.mc.Start(ctx); err != nil {
		return err
	}
	defer a.mc.Disconnect(context.Background())

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := a.mc.AwaitConnection(connectCtx); err != nil {
		return err
	}
	logger.Info("Connected to fleet broker")

	if err := a.mc.Subscribe(ctx, a.topics.TelemetryWildcard(), 1, a.telemetry.HandleMessage); err != nil {
		return err
	}

	if a.archive != nil {
		if err := a.archive.EnsureBucket(ctx); err != nil {
			// The archive is best-effort; the machine must keep operating
			// when object storage is unreachable.
			logger.Error(err, "Diagnostic archive unavailable, continuing without it")
			a.archive = nil
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return server.New(a.httpOptions, a).Start(ctx)
	})
	eg.Go(func() error {
		return a.heartbeatLoop(ctx)
	})
	eg.Go(func() error {
		return a.monitorLoop(ctx, logger)
	})

	return eg.Wait()
}

// heartbeatLoop publishes this machine's own telemetry so peers can track it
// the same way it tracks them.
func (a *Agent) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	topic := a.topics.Telemetry(a.machineID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sample := failsafe.PeerTelemetry{
				PeerID:             a.machineID,
				LastHeartbeat:      time.Now().UTC(),
				MessageSuccessRate: 1.0,
			}
			payload, err := json.Marshal(sample)
			if err != nil {
				return err
			}
			if err := a.mc.Publish(ctx, topic, 1, true, payload); err != nil {
				log.Error(err, "Failed to publish heartbeat", "topic", topic)
			}
		}
	}
}

// monitorLoop is the agent's single control loop. Each tick it snapshots
// communication health, drives the fail-safe controller on classification
// changes, and publishes the resulting decision to the fleet.
func (a *Agent) monitorLoop(ctx context.Context, logger log.Logger) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.tick(ctx, logger)
		}
	}
}

func (a *Agent) tick(ctx context.Context, logger log.Logger) {
	peers := a.telemetry.Snapshot()
	health := a.monitor.Snapshot(peers, a.stack.HasSafetyCriticalDTC())

	metrics.HealthScore.Set(health.OverallHealthScore)
	metrics.LostPeers.Set(float64(len(health.LostPeers)))

	a.mu.Lock()
	changed := health.Classification != a.lastClassification
	a.lastClassification = health.Classification
	a.lastHealth = health
	a.mu.Unlock()

	if !changed {
		return
	}

	logger.Info("Communication health changed",
		"classification", string(health.Classification),
		"score", health.OverallHealthScore,
		"lostPeers", health.LostPeers)

	if health.Classification == failsafe.LossNominal {
		if a.controller.Mode() != failsafe.ModeFullConnectivity {
			protocol := a.controller.RestoreCommunication(ctx)
			a.publishJSON(ctx, a.topics.Restoration(a.machineID), protocol, logger)
		}
		a.mu.Lock()
		a.lastAction = nil
		a.mu.Unlock()
		return
	}

	action := a.controller.HandleCommunicationLoss(ctx, health.Classification)
	a.mu.Lock()
	a.lastAction = &action
	a.mu.Unlock()

	a.publishJSON(ctx, a.topics.Failsafe(a.machineID), action, logger)

	// Suspending operations is the moment to get the evidence off the
	// machine, while whatever connectivity remains may still carry it.
	if !action.ContinueOperations {
		if codes := a.stack.ActiveDTCs(); len(codes) > 0 {
			a.publishJSON(ctx, a.topics.Diagnostic(a.machineID), diagnosticReport{
				MachineID:  a.machineID,
				CapturedAt: time.Now().UTC(),
				Codes:      codes,
			}, logger)
			if a.archive != nil {
				if err := a.archive.StoreReport(ctx, a.machineID, codes); err != nil {
					logger.Error(err, "Failed to archive diagnostic report")
				}
			}
		}
	}
}

func (a *Agent) publishJSON(ctx context.Context, topic string, v any, logger log.Logger) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error(err, "Failed to encode payload", "topic", topic)
		return
	}
	if err := a.mc.Publish(ctx, topic, 1, false, payload); err != nil {
		logger.Error(err, "Failed to publish", "topic", topic)
	}
}

// Status implements server.StatusProvider.
func (a *Agent) Status() any {
	a.mu.RLock()
	health := a.lastHealth
	action := a.lastAction
	a.mu.RUnlock()

	ops := a.activeOperations
	if ops <= 0 {
		ops = 1
	}

	return Status{
		MachineID:      a.machineID,
		ClaimedAddress: a.stack.Arbiter().ClaimedAddress(),
		Mode:           a.controller.Mode(),
		Health:         health,
		Envelope:       failsafe.CalculateSafeOperatingEnvelope(health, ops),
		LastAction:     action,
		ActiveDTCs:     a.stack.ActiveDTCs(),
		Throughput:     a.stack.Throughput(),
		Timestamp:      time.Now().UTC(),
	}
}
