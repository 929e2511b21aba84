package app

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agrolink-io/agrolink/pkg/log"
)

const configFlagName = "config"

var cfgFile string

// addConfigFlag registers the --config flag on the command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&cfgFile, configFlagName, "c", "",
		"Path to the configuration file (YAML). Flags override file values.")
}

// loadConfig reads the optional config file into viper and pushes its values
// into any flag the user did not set explicitly on the command line.
//
// The file is also watched: changes are logged and re-applied to unset flags,
// which lets operators tune monitoring thresholds without a restart. Values
// that are fixed policy (the priority table, the fail-safe action table) are
// compiled in and unaffected by reloads.
func loadConfig(fs *pflag.FlagSet, name string) error {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/agrolink")
	}

	v.SetEnvPrefix("AGROLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	applyToFlags(v, fs)

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, re-applying", "file", e.Name, "op", e.Op.String())
		applyToFlags(v, fs)
	})
	v.WatchConfig()

	return nil
}

// applyToFlags copies viper values onto flags that were not set explicitly.
func applyToFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, v.GetString(f.Name)); err != nil {
			log.Warn("Ignoring invalid config value", "flag", f.Name, "error", err)
		}
	})
}
