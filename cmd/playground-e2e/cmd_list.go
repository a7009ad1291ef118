package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thesyncim/playground-e2e/pkg/playground/scenario"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [files or directories...]",
		Short: "List scenarios without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  listScenarios,
	}
}

func listScenarios(cmd *cobra.Command, args []string) error {
	scenarios, err := scenario.Load(args...)
	if err != nil {
		return badInput(err)
	}
	out := cmd.OutOrStdout()
	for _, sc := range scenarios {
		fmt.Fprintf(out, "%-40s %2d step(s)  %s\n", sc.Name, len(sc.Steps), sc.Source)
		if sc.Description != "" {
			fmt.Fprintf(out, "    %s\n", sc.Description)
		}
	}
	fmt.Fprintf(out, "\n%d scenario(s)\n", len(scenarios))
	return nil
}
