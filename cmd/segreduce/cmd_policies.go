package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segreduce"
	"github.com/hupe1980/segreduce/policy"
	"github.com/hupe1980/segreduce/tuning"
)

func newPoliciesCmd(loadConfig func() (*tuning.Config, error)) *cobra.Command {
	var (
		archFlag string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Print the resolved policy set and size class thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if archFlag != "" {
				cfg.Arch = archFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			r, err := segreduce.New[float32](opts...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if all {
				chain, err := cfg.Chain()
				if err != nil {
					return err
				}
				for _, e := range chain.Entries() {
					fmt.Fprintf(w, "== %s (%d)\n", e.MinArch, uint32(e.MinArch))
					printSet(w, e.Set)
				}
				return w.Flush()
			}

			t := r.Thresholds()
			fmt.Fprintf(w, "arch:\t%s\n", r.Arch())
			fmt.Fprintf(w, "thresholds:\tsmall<=%d\tmedium<=%d\n", t.Small, t.Medium)
			printSet(w, r.Policies())
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&archFlag, "arch", "", "target generation (name or number); default detected")
	cmd.Flags().BoolVar(&all, "all", false, "print every catalog entry")
	return cmd
}

func printSet(w *tabwriter.Writer, s policy.Set) {
	for _, c := range policy.Classes {
		p := s.For(c)
		fmt.Fprintf(w, "%s\twidth=%d\titems=%d\tvec=%d\tnet=%s\tload=%s\ttile=%d\n",
			c, p.GroupWidth, p.ItemsPerLane, p.VectorWidth, p.Network, p.Load, p.TileSize())
	}
}
