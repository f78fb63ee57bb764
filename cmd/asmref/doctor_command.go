package main

import (
	"github.com/spf13/cobra"

	"asmref/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check search paths, output directories and the .NET host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, result := range results {
					rows = append(rows, []string{result.Name, checkStatus(result), result.Detail})
				}
				writeRows(cmd, []string{"Check", "Status", "Detail"}, rows, nil)
			}

			if preflight.Failed(results) {
				return errSilentFailure
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func checkStatus(result preflight.Result) string {
	switch {
	case result.Passed:
		return "ok"
	case result.Optional:
		return "warn"
	default:
		return "fail"
	}
}
