package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// controlAddress overrides the control API address from the settings.
	controlAddress string

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "monitor-switcher",
		Short: "Switch a shared monitor to the machine that owns the keyboard and mouse.",
		Long: `Watches the input devices attached to this machine. When a USB KM switch moves
the keyboard and mouse to the other machine, the shared monitor is switched to
that machine's input over DDC/CI, and back again when they return.

Start the watcher with "monitor-switcher run". The other commands talk to the
running instance over its local control address.`,
		SilenceUsage: true,
	}
)

// Execute runs the monitor-switcher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&controlAddress, "control-address", "a", "", "control API address, overrides the settings")

	rootCmd.AddCommand(runCmd, switchCmd, statusCmd, configureCmd, inputsCmd)
}
