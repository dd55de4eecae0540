package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	var flagIssues bool
	cmd := &cobra.Command{
		Use:   "graph <flow>",
		Short: "Export the flow graph visualization",
		Long:  `Outputs a Mermaid diagram (graph TD) of the flow: nodes, buttons, input targets and auto-transitions.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _, err := a.compiler.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), a.compiler.Graph(project, flagIssues))
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagIssues, "flag-issues", false, "Highlight nodes with validation issues")
	return cmd
}
