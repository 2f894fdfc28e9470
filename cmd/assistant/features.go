package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) featuresCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "List feature flags after FEATURE_* overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := "FEATURE\tENABLED\tROLLOUT\tDESCRIPTION"
			if userID != "" {
				header += "\tFOR USER"
			}
			fmt.Fprintln(w, header)

			for _, f := range c.cfg.Features.All() {
				line := fmt.Sprintf("%s\t%t\t%d%%\t%s", f.Name, f.Enabled, f.RolloutPercent, f.Description)
				if userID != "" {
					line += fmt.Sprintf("\t%t", c.cfg.Features.IsEnabledFor(f.Name, userID))
				}
				fmt.Fprintln(w, line)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Also evaluate each flag for this student")
	return cmd
}
