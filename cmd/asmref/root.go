package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "asmref",
		Short:         "Index .NET assemblies and resolve assembly references",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	persistent.StringArrayVarP(&flags.paths, "path", "p", nil, "File or directory to index (repeatable, replaces search.paths)")
	persistent.StringArrayVar(&flags.frameworkPaths, "framework", nil, "Framework root preferred on collisions (repeatable)")
	persistent.IntVar(&flags.workers, "workers", 0, "Parallel metadata readers (default: CPU count)")
	persistent.StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(newIndexCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
