package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowbot"
	"github.com/spf13/cobra"
)

func newDecompileCmd(a *app) *cobra.Command {
	var (
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "decompile <bot.go>",
		Short: "Recover a flow document from emitted bot source",
		Long: `Reads Go source previously emitted by compile and writes the recovered
flow document. Recovery is best-effort: what could not be recovered is logged
as a warning, and unparsable source falls back to a line scan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read bot source: %w", err)
			}

			res := a.compiler.Decompile(src)
			for _, w := range res.Warnings {
				a.logger.Warn("Decompile warning", "warning", w)
			}
			if !res.Structural {
				a.logger.Warn("Source did not parse; recovered by line scan", "file", args[0])
			}

			data, err := flowbot.Encode(res.Project, format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
			} else {
				err = os.WriteFile(out, data, 0o644)
			}
			if err != nil {
				return fmt.Errorf("failed to write flow: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}
