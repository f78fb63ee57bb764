package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"asmref/internal/refcache"
)

type resolveResult struct {
	Reference string        `json:"reference"`
	Resolved  bool          `json:"resolved"`
	Assembly  *assemblyView `json:"assembly,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "resolve <reference>...",
		Short: "Resolve assembly references against the index",
		Long: "Resolve assembly references such as \"System.Runtime, Version=8.0.0.0\".\n" +
			"An exact identity match is tried first, then the bare name ignoring case.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.buildCache(cmd)
			if err != nil {
				return err
			}

			results := make([]resolveResult, 0, len(args))
			unresolved := 0
			for _, ref := range args {
				result := resolveResult{Reference: ref}
				info, err := cache.Resolve(ref)
				switch {
				case err == nil:
					view := newAssemblyView(cache, info)
					result.Resolved = true
					result.Assembly = &view
				case errors.Is(err, refcache.ErrUnresolved):
					unresolved++
					result.Error = err.Error()
				default:
					return err
				}
				results = append(results, result)
			}

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, result := range results {
					row := []string{result.Reference, yesNo(result.Resolved), "", ""}
					if result.Assembly != nil {
						row[2] = result.Assembly.Identity
						row[3] = result.Assembly.Path
					}
					rows = append(rows, row)
				}
				writeRows(cmd, []string{"Reference", "Resolved", "Identity", "Path"}, rows, nil)
			}

			if strict && unresolved > 0 {
				return fmt.Errorf("%d of %d references unresolved", unresolved, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any reference is unresolved")
	return cmd
}
