package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		out        string
		opts       flowbot.CompileOptions
		persistent bool
		report     bool
	)
	cmd := &cobra.Command{
		Use:   "compile <flow>",
		Short: "Compile a flow document into a bot program",
		Long: `Reads a flow document (JSON or YAML), emits the Go source of the bot and
writes it to --out or to stdout. Warnings are logged; with --report a summary
is printed to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _, err := a.compiler.LoadFile(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("persistent") {
				opts.PersistentStorage = &persistent
			}

			res, err := a.compiler.Compile(cmd.Context(), project, opts)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(res.Source)
			} else {
				err = os.WriteFile(out, res.Source, 0o644)
			}
			if err != nil {
				return fmt.Errorf("failed to write bot source: %w", err)
			}

			if report {
				md := tui.Report{
					Title:    fmt.Sprintf("Compiled %s", project.Name),
					Nodes:    len(project.Graph().Nodes),
					Tokens:   res.Tokens,
					Output:   out,
					Warnings: res.Warnings,
				}.Markdown()
				rendered, err := tui.NewRenderer()(md)
				if err != nil {
					rendered = md
				}
				fmt.Fprint(cmd.ErrOrStderr(), rendered)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&opts.Package, "package", "", "Package clause of the output")
	cmd.Flags().StringVar(&opts.CollisionPolicy, "collision-policy", "", "Token collision policy: first-wins, error, rederive")
	cmd.Flags().StringVar(&opts.DanglingPolicy, "dangling-policy", "", "Missing target policy: inert, error")
	cmd.Flags().StringVar(&opts.RuntimeModule, "runtime-module", "", "Module path providing botkit")
	cmd.Flags().BoolVar(&persistent, "persistent", false, "Force persistent variable storage on or off")
	cmd.Flags().BoolVar(&report, "report", false, "Print a compile summary to stderr")
	return cmd
}
