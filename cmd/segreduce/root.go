package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/segreduce/tuning"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "segreduce",
		Short:         "Segmented reduction toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "tuning file (YAML)")

	loadConfig := func() (*tuning.Config, error) {
		if configPath == "" {
			return tuning.Default(), nil
		}
		return tuning.Load(configPath)
	}

	root.AddCommand(
		newArchCmd(),
		newPoliciesCmd(loadConfig),
		newRunCmd(loadConfig),
	)
	return root
}
