package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agrolink-io/agrolink/pkg/log"
)

// CliOptions abstracts the full option set of a command-line application.
type CliOptions interface {
	// AddFlags binds all option fields to the command's FlagSet.
	AddFlags(fs *pflag.FlagSet)

	// Complete fills in any fields not set directly by the user.
	Complete() error

	// Validate checks the resulting option values.
	Validate() error
}

// RunFunc is the application's main entry once options are resolved.
type RunFunc func() error

// App assembles a cobra command with config-file loading, flag binding,
// and logger initialization shared by every AgroLink binary.
type App struct {
	name        string
	short       string
	description string
	options     CliOptions
	logOpts     *log.Options
	run         RunFunc
	noConfig    bool

	cmd *cobra.Command
}

// Option configures an App during construction.
type Option func(*App)

// WithDescription sets the long description shown in help output.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions attaches the command's option set.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the application's entry function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.run = run
	}
}

// WithLogOptions attaches logger options so the App can initialize the
// global logger before handing control to the run function.
func WithLogOptions(opts *log.Options) Option {
	return func(a *App) {
		a.logOpts = opts
	}
}

// WithNoConfig disables the --config flag and config-file loading.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// NewApp builds an App from the given name, short description, and options.
func NewApp(name, short string, opts ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCommand(cmd)
		},
	}

	if a.options != nil {
		a.options.AddFlags(cmd.Flags())
	}
	if a.logOpts != nil {
		a.logOpts.AddFlags(cmd.Flags())
	}
	if !a.noConfig {
		addConfigFlag(cmd)
	}

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command) error {
	if !a.noConfig {
		if err := loadConfig(cmd.Flags(), a.name); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	if a.logOpts != nil {
		log.Init(a.logOpts)
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.run != nil {
		return a.run()
	}
	return nil
}

// Command returns the underlying cobra command, mainly for tests.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the application.
func (a *App) Run() error {
	return a.cmd.Execute()
}
