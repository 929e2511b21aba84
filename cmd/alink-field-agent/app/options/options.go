package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/agrolink-io/agrolink/internal/fieldagent"
	genericoptions "github.com/agrolink-io/agrolink/pkg/options"
)

// Options holds the full flag surface of the field agent.
type Options struct {
	MachineID        string `json:"machine-id" mapstructure:"machine-id"`
	PreferredAddress uint8  `json:"preferred-address" mapstructure:"preferred-address"`
	ManufacturerCode uint16 `json:"manufacturer-code" mapstructure:"manufacturer-code"`
	IdentityNumber   uint32 `json:"identity-number" mapstructure:"identity-number"`

	MonitorInterval   time.Duration `json:"monitor-interval" mapstructure:"monitor-interval"`
	HeartbeatTimeout  time.Duration `json:"heartbeat-timeout" mapstructure:"heartbeat-timeout"`
	DegradedThreshold float64       `json:"degraded-threshold" mapstructure:"degraded-threshold"`

	Mqtt *genericoptions.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	Http *genericoptions.HttpOptions `json:"http" mapstructure:"http"`
	S3   *genericoptions.S3Options   `json:"s3" mapstructure:"s3"`
}

// NewOptions returns Options with field-tested defaults.
func NewOptions() *Options {
	return &Options{
		PreferredAddress:  0x80,
		ManufacturerCode:  1981,
		MonitorInterval:   2 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		DegradedThreshold: 0.8,
		Mqtt:              genericoptions.NewMqttOptions(),
		Http:              genericoptions.NewHttpOptions(),
		S3:                genericoptions.NewS3Options(),
	}
}

// AddFlags binds the agent's flags to the command's FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.MachineID, "machine-id", o.MachineID, "Unique fleet identifier of this machine.")
	fs.Uint8Var(&o.PreferredAddress, "preferred-address", o.PreferredAddress, "Preferred bus source address (0-253).")
	fs.Uint16Var(&o.ManufacturerCode, "manufacturer-code", o.ManufacturerCode, "Manufacturer code packed into the device name.")
	fs.Uint32Var(&o.IdentityNumber, "identity-number", o.IdentityNumber, "Identity number packed into the device name.")

	fs.DurationVar(&o.MonitorInterval, "monitor-interval", o.MonitorInterval, "Interval between health monitoring ticks.")
	fs.DurationVar(&o.HeartbeatTimeout, "heartbeat-timeout", o.HeartbeatTimeout, "Staleness after which a peer heartbeat counts as lost.")
	fs.Float64Var(&o.DegradedThreshold, "degraded-threshold", o.DegradedThreshold, "Success rate below which connectivity counts as degraded.")

	o.Mqtt.AddFlags(fs)
	o.Http.AddFlags(fs)
	o.S3.AddFlags(fs)
}

// Complete fills in fields derivable from others.
func (o *Options) Complete() error {
	if o.IdentityNumber == 0 && o.MachineID != "" {
		// A stable nonzero identity keeps address arbitration deterministic
		// across restarts.
		var h uint32
		for _, c := range o.MachineID {
			h = h*31 + uint32(c)
		}
		o.IdentityNumber = h & 0x1FFFFF
	}
	return nil
}

// Validate checks the resulting option values.
func (o *Options) Validate() error {
	if o.MachineID == "" {
		return fmt.Errorf("--machine-id is required")
	}
	if o.PreferredAddress > 253 {
		return fmt.Errorf("--preferred-address must be in [0, 253], got %d", o.PreferredAddress)
	}
	if o.DegradedThreshold <= 0 || o.DegradedThreshold > 1 {
		return fmt.Errorf("--degraded-threshold must be in (0, 1], got %v", o.DegradedThreshold)
	}
	for _, errs := range [][]error{o.Mqtt.Validate(), o.Http.Validate(), o.S3.Validate()} {
		for _, err := range errs {
			return err
		}
	}
	return nil
}

// Config converts the options into the agent's runtime configuration.
func (o *Options) Config() *fieldagent.Config {
	return &fieldagent.Config{
		MachineID:         o.MachineID,
		PreferredAddress:  o.PreferredAddress,
		ManufacturerCode:  o.ManufacturerCode,
		IdentityNumber:    o.IdentityNumber,
		MonitorInterval:   o.MonitorInterval,
		HeartbeatTimeout:  o.HeartbeatTimeout,
		DegradedThreshold: o.DegradedThreshold,
		Mqtt:              o.Mqtt,
		Http:              o.Http,
		S3:                o.S3,
	}
}
