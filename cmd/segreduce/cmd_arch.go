package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segreduce/device"
)

func newArchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arch",
		Short: "Print the detected architecture generation and CPU features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			f := device.Features()

			fmt.Fprintf(w, "arch:       %s (%d)\n", device.DetectedArch(), uint32(device.DetectedArch()))
			fmt.Fprintf(w, "overridden: %t (%s)\n", device.IsOverridden(), device.ArchEnv)
			fmt.Fprintf(w, "features:   %+v\n", f)
			return nil
		},
	}
}
