package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/csfgap/internal/weights"
)

func newPresetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "List industry weight presets, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				p, err := weights.LoadPreset(args[0])
				if err != nil {
					return exitError(exitInput, "%v", err)
				}
				return writeJSON(p, "", cmd.OutOrStdout())
			}
			names, err := weights.List()
			if err != nil {
				return err
			}
			presets := make([]*weights.Preset, 0, len(names))
			for _, name := range names {
				p, err := weights.LoadPreset(name)
				if err != nil {
					return err
				}
				presets = append(presets, p)
			}
			a.log.Debug("presets listed")
			return writeJSON(presets, "", cmd.OutOrStdout())
		},
	}
}
