package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/csfgap/internal/taxonomy"
)

type taxonomyView struct {
	Framework     string              `json:"framework"`
	Version       string              `json:"version"`
	Source        string              `json:"source"`
	Hash          string              `json:"hash,omitempty"`
	Subcategories int                 `json:"subcategory_count"`
	Functions     []taxonomy.Function `json:"functions"`
}

func newTaxonomyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the framework taxonomy in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTaxonomy(a.cfg.TaxonomyPath)
			if err != nil {
				return exitError(exitInput, "failed to load taxonomy: %v", err)
			}
			return writeJSON(taxonomyView{
				Framework:     t.Framework,
				Version:       t.Version,
				Source:        t.Source,
				Hash:          t.Hash,
				Subcategories: t.SubcategoryCount(),
				Functions:     t.Functions(),
			}, "", cmd.OutOrStdout())
		},
	}
}
