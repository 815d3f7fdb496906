package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/monitor-switcher/internal/service/status"
)

// statusCmd prints the state of the running instance.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active machine and monitor input.",
	Long:  "Queries the running instance. When none answers, the last recorded switch is shown.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		return status.Run(ctx, &status.Options{
			ConfigPath:     configPath,
			ControlAddress: controlAddress,
			Out:            cmd.OutOrStdout(),
		})
	},
}
