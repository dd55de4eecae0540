package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/internal/config"
	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/internal/presentation/tui"
	"github.com/aretw0/flowbot/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app is the state shared by every command, built before any of them runs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	compiler *flowbot.Compiler
}

func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Format)
	a.registry = prometheus.NewRegistry()
	a.metrics = observability.NewMetrics(a.registry)
	a.compiler = flowbot.New(
		flowbot.WithLogger(a.logger),
		flowbot.WithMetrics(a.metrics),
		flowbot.WithCompileHooks(observability.LogHooks(a.logger)),
		flowbot.WithDefaults(flowbot.CompileOptions{
			Package:         cfg.Compile.Package,
			CollisionPolicy: cfg.Compile.CollisionPolicy,
			DanglingPolicy:  cfg.Compile.DanglingPolicy,
			RuntimeModule:   cfg.Compile.RuntimeImport,
		}),
	)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "flowbot",
		Short: "flowbot compiles conversation flows into Telegram bots",
		Long: `flowbot turns flow documents exported by the visual editor into Go
programs built on the botkit runtime, and recovers flows from emitted source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			tui.PrintBanner(cmd.OutOrStdout(), flowbot.Version)
			return cmd.Help()
		},
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Settings file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(
		newCompileCmd(a),
		newDecompileCmd(a),
		newValidateCmd(a),
		newGraphCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
