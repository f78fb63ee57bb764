package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type indexSummary struct {
	Candidates     int    `json:"candidates"`
	Indexed        int    `json:"indexed"`
	DecodeFailures int    `json:"decode_failures"`
	Identities     int    `json:"identities"`
	Elapsed        string `json:"elapsed"`
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the search paths and report index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.buildCache(cmd)
			if err != nil {
				return err
			}
			stats := cache.Stats()
			summary := indexSummary{
				Candidates:     stats.Candidates,
				Indexed:        stats.Indexed,
				DecodeFailures: stats.DecodeFailures,
				Identities:     stats.Identities,
				Elapsed:        stats.Elapsed.String(),
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Candidates:  %d\n", summary.Candidates)
			fmt.Fprintf(out, "Indexed:     %d\n", summary.Indexed)
			fmt.Fprintf(out, "Failed:      %d\n", summary.DecodeFailures)
			fmt.Fprintf(out, "Identities:  %d\n", summary.Identities)
			fmt.Fprintf(out, "Elapsed:     %s\n", summary.Elapsed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
