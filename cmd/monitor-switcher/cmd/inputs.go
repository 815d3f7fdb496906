package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/monitor-switcher/internal/ddc"
)

// inputsCmd lists the supported input names.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "List the supported monitor input names.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range ddc.InputNames() {
			source, _ := ddc.ParseInputSource(name)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-14s 0x%02X\n", name, uint16(source))
		}
	},
}
