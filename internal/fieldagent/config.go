package fieldagent

import (
	"fmt"
	"time"

	"github.com/agrolink-io/agrolink/internal/failsafe"
	"github.com/agrolink-io/agrolink/internal/fieldagent/archive"
	"github.com/agrolink-io/agrolink/internal/j1939"
	"github.com/agrolink-io/agrolink/pkg/log"
	"github.com/agrolink-io/agrolink/pkg/mqtt"
	"github.com/agrolink-io/agrolink/pkg/mqtt/topic"
	"github.com/agrolink-io/agrolink/pkg/options"
)

// Config assembles everything a field agent needs to run on one machine.
type Config struct {
	// Identity
	MachineID        string
	PreferredAddress uint8
	ManufacturerCode uint16
	IdentityNumber   uint32

	// Monitoring
	MonitorInterval   time.Duration
	HeartbeatTimeout  time.Duration
	DegradedThreshold float64

	Mqtt *options.MqttOptions
	Http *options.HttpOptions
	S3   *options.S3Options
}

// NewAgent wires the protocol stack, health monitor, fail-safe controller,
// and transports into a runnable agent.
func (cfg *Config) NewAgent() (*Agent, error) {
	if cfg.MachineID == "" {
		return nil, fmt.Errorf("machine-id is required")
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 2 * time.Second
	}

	name := j1939.DeviceName{
		ArbitraryAddressCapable: true,
		IndustryGroup:           2, // agricultural equipment
		VehicleSystem:           1,
		Function:                25,
		ManufacturerCode:        cfg.ManufacturerCode,
		IdentityNumber:          cfg.IdentityNumber,
	}

	logger := log.Std()
	stack := j1939.NewStack(name, logger)
	controller := failsafe.NewController(logger)
	monitor := failsafe.NewMonitor(failsafe.MonitorConfig{
		HeartbeatTimeout:  cfg.HeartbeatTimeout,
		DegradedThreshold: cfg.DegradedThreshold,
	})

	mqttCfg := cfg.Mqtt.ToClientConfig()
	if mqttCfg.ClientID == "" {
		mqttCfg.ClientID = "alink-agent-" + cfg.MachineID
	}
	topics := topic.NewBuilder(cfg.Mqtt.TopicRoot)

	// The broker marks this machine lost for the rest of the fleet if the
	// agent drops off without a clean disconnect.
	mqttCfg.WillTopic = topics.Telemetry(cfg.MachineID)
	mqttCfg.WillPayload = []byte(`{"peer_id":"` + cfg.MachineID + `","message_success_rate":0}`)
	mqttCfg.WillQoS = 1
	mqttCfg.WillRetain = true

	mc, err := mqtt.NewClient(mqttCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	var store *archive.Archive
	if cfg.S3 != nil && cfg.S3.Enabled {
		store, err = archive.New(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to init diagnostic archive: %w", err)
		}
	}

	return &Agent{
		machineID:        cfg.MachineID,
		preferredAddress: cfg.PreferredAddress,
		interval:         cfg.MonitorInterval,
		httpOptions:      cfg.Http,
		stack:            stack,
		monitor:          monitor,
		controller:       controller,
		telemetry:        NewTelemetryStore(cfg.MachineID),
		mc:               mc,
		topics:           topics,
		archive:          store,
	}, nil
}
