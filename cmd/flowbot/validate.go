package main

import (
	"fmt"

	"github.com/aretw0/flowbot/internal/presentation/tui"
	"github.com/aretw0/flowbot/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <flow>",
		Short: "Check the flow for consistency",
		Long:  `Reports missing targets, duplicate commands and nodes unreachable from any entry point.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, warnings, err := a.compiler.LoadFile(args[0])
			if err != nil {
				return err
			}

			issues := a.compiler.Validate(project)
			md := tui.Report{
				Title:    fmt.Sprintf("Validated %s", project.Name),
				Nodes:    len(project.Graph().Nodes),
				Warnings: warnings,
				Issues:   validator.Strings(issues),
			}.Markdown()
			rendered, err := tui.NewRenderer()(md)
			if err != nil {
				rendered = md
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)

			if len(issues) > 0 {
				return fmt.Errorf("validation failed: %d issue(s)", len(issues))
			}
			return nil
		},
	}
}
