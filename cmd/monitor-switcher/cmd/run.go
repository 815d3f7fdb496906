package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/monitor-switcher/internal/service/watcher"
)

// runCmd starts the watcher in the foreground.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch input devices and switch the monitor.",
	Long: `Starts the presence watcher and the local control API.

The settings file is created with defaults when missing and reloaded whenever it
changes. Only one instance may run at a time.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signalContext()
		defer stop()

		return watcher.Run(ctx, &watcher.Options{
			ConfigPath:     configPath,
			ControlAddress: controlAddress,
		})
	},
}
