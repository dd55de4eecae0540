package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowbot"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of flowbot",
		// Skips config loading.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowbot version %s\n", strings.TrimSpace(flowbot.Version))
		},
	}
}
