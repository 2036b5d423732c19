package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dshills/csfgap/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <subject>",
		Short: "List archived analysis snapshots for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := history.NewStore(a.cfg.HistoryDir, a.cfg.HistoryLimit).List(args[0])
			if err != nil {
				return exitError(exitInput, "%v", err)
			}
			if snaps == nil {
				snaps = []history.Snapshot{}
			}
			return writeJSON(snaps, "", cmd.OutOrStdout())
		},
	}
}

func newTrendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trend <subject>",
		Short: "Show maturity trends across archived snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps, err := history.NewStore(a.cfg.HistoryDir, a.cfg.HistoryLimit).List(args[0])
			if err != nil {
				return exitError(exitInput, "%v", err)
			}
			rep, err := history.Trends(snaps)
			if errors.Is(err, history.ErrInsufficientHistory) {
				return exitError(exitInput, "%s: %d snapshot(s) archived; run analyze --archive again", args[0], len(snaps))
			}
			if err != nil {
				return err
			}
			return writeJSON(rep, "", cmd.OutOrStdout())
		},
	}
}
