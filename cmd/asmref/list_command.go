package main

import (
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var frameworkOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every indexed assembly",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.buildCache(cmd)
			if err != nil {
				return err
			}

			views := make([]assemblyView, 0)
			for _, info := range cache.AllAssemblies() {
				view := newAssemblyView(cache, info)
				if frameworkOnly && !view.Framework {
					continue
				}
				views = append(views, view)
			}

			if jsonOutput {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, view.row())
			}
			writeRows(cmd, assemblyHeaders, rows, nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&frameworkOnly, "framework-only", false, "Only list copies under the framework paths")
	return cmd
}
