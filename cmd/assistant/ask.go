package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) askCmd() *cobra.Command {
	var (
		userID   string
		snapshot string
		noLLM    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and exit",
		Example: `  assistant ask --user b21dccn001 "what is my gpa"
  assistant ask --user b21dccn001 --snapshot testdata/student.yaml --no-llm "diem mon co so du lieu"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := build(cmd.Context(), c.cfg, c.logger, buildOptions{
				snapshotPath: snapshot,
				noLLM:        noLLM,
			})
			if err != nil {
				return err
			}
			defer comps.close()

			reply := comps.engine.HandleChat(cmd.Context(), strings.Join(args, " "), userID)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Student id whose records are read")
	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "Serve records from a YAML or JSON context document")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Never call the general QA model")
	return cmd
}
