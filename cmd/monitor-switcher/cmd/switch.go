package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/monitor-switcher/internal/service/manual"
)

var (
	// direct drives the monitor from this process.
	direct bool

	// switchCmd switches the monitor on request.
	//
	//nolint:gochecknoglobals // Cobra commands are package-level by convention.
	switchCmd = &cobra.Command{
		Use:       "switch <home|work>",
		Short:     "Switch the monitor to a machine now.",
		Long:      "Asks the running instance to switch the monitor. With --direct the monitor is driven from this process instead.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"home", "work"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			outcome, err := manual.Run(ctx, &manual.Options{
				ConfigPath:     configPath,
				ControlAddress: controlAddress,
				Machine:        args[0],
				Direct:         direct,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s machine (%s)\n", outcome.Machine, outcome.Input)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	switchCmd.Flags().BoolVarP(&direct, "direct", "d", false, "drive the monitor without the running instance")
}
