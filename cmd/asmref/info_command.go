package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <file>...",
		Short: "Show the assembly identity of individual files",
		Long: "Show the assembly identity of individual files. Files outside the search\n" +
			"paths are read on demand and are not used for reference resolution.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.buildCache(cmd)
			if err != nil {
				return err
			}

			views := make([]assemblyView, 0, len(args))
			failed := 0
			for _, path := range args {
				info, err := cache.GetAssemblyInfo(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: no readable assembly metadata\n", path)
					continue
				}
				views = append(views, newAssemblyView(cache, info))
			}

			if jsonOutput {
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else if len(views) > 0 {
				rows := make([][]string, 0, len(views))
				for _, view := range views {
					rows = append(rows, view.row())
				}
				writeRows(cmd, assemblyHeaders, rows, nil)
			}

			if failed > 0 {
				return errSilentFailure
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
