package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/agrolink-io/agrolink/cmd/alink-field-agent/app/options"
	"github.com/agrolink-io/agrolink/pkg/app"
	"github.com/agrolink-io/agrolink/pkg/log"
)

const commandDesc = `The AgroLink field agent runs on each autonomous machine. It speaks the
equipment bus protocol, monitors fleet communication health, and drives the
communication-loss fail-safe controller. Machine status is served over HTTP
and fleet coordination runs over MQTT.`

// NewApp builds the field agent command.
func NewApp(name string) *app.App {
	opts := options.NewOptions()
	return app.NewApp(name, "AgroLink autonomous field agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithLogOptions(log.NewOptions()),
		app.WithRunFunc(func() error {
			return run(opts)
		}),
	)
}

func run(opts *options.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, err := opts.Config().NewAgent()
	if err != nil {
		return err
	}

	log.Info("Starting field agent", "machineID", opts.MachineID)
	if err := agent.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Field agent stopped")
	return nil
}
