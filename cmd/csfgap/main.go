package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/csfgap/internal/config"
	"github.com/dshills/csfgap/internal/logging"
)

var version = "0.1.0"

// app carries state resolved once per invocation.
type app struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "csfgap",
		Short:         "Weighted NIST CSF 2.0 gap analysis and maturity scoring",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return exitError(exitInput, "configuration: %v", err)
			}
			level := cfg.LogLevel
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				level = "debug"
			}
			l, err := logging.NewLogger(level)
			if err != nil {
				return exitError(exitInput, "configuration: %v", err)
			}
			a.cfg = cfg
			a.log = logging.WithComponent(l, cmd.Name())
			if cfg.ConfigFile != "" {
				a.log.Debug("config loaded", zap.String("file", cfg.ConfigFile))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().BoolP("verbose", "v", false, "Log processing steps to stderr")

	root.AddCommand(
		newAnalyzeCmd(a),
		newPresetsCmd(a),
		newTaxonomyCmd(a),
		newHistoryCmd(a),
		newTrendCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}
