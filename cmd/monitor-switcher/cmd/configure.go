package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/monitor-switcher/internal/service/configure"
)

var (
	// configureOptions collects the configure flags.
	configureOptions configure.Options
	// monitorIndex is applied only when the flag is set.
	monitorIndex int
	// notifications is applied only when the flag is set.
	notifications bool

	// configureCmd edits the settings file.
	//
	//nolint:gochecknoglobals // Cobra commands are package-level by convention.
	configureCmd = &cobra.Command{
		Use:   "configure",
		Short: "Change the input mapping and monitor settings.",
		Long: `Edits the settings file, creating it when missing. A running instance reloads
the settings and reconnects to the monitor on the next switch.

Run "monitor-switcher inputs" for the list of input names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			options := configureOptions
			options.ConfigPath = configPath

			if cmd.Flags().Changed("monitor-index") {
				options.MonitorIndex = &monitorIndex
			}

			if cmd.Flags().Changed("notifications") {
				options.Notifications = &notifications
			}

			cfg, err := configure.Run(ctx, &options)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Home: %s, work: %s, monitor: %d, poll interval: %s\n",
				cfg.HomeInput, cfg.WorkInput, cfg.MonitorIndex, cfg.PollInterval)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := configureCmd.Flags()
	flags.StringVar(&configureOptions.HomeInput, "home-input", "", "monitor input of the home machine, e.g. HDMI-1")
	flags.StringVar(&configureOptions.WorkInput, "work-input", "", "monitor input of the work machine, e.g. HDMI-2")
	flags.IntVar(&monitorIndex, "monitor-index", 0, "monitor to control, 0 is the first one")
	flags.DurationVar(&configureOptions.PollInterval, "poll-interval", 0, "delay between presence samples")
	flags.BoolVar(&notifications, "notifications", true, "show desktop notifications on switch")
}
