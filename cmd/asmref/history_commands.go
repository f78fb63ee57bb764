package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"asmref/internal/assembly"
	"asmref/internal/inventory"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var dbPath string

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect exported inventory sessions",
	}
	historyCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Inventory database path (default: export.database)")

	withStore := func(cmd *cobra.Command, fn func(context.Context, *inventory.Store) error) error {
		path, err := ctx.databasePath(dbPath)
		if err != nil {
			return err
		}
		store, err := inventory.Open(path)
		if err != nil {
			return fmt.Errorf("open inventory: %w", err)
		}
		defer store.Close()
		runCtx := cmd.Context()
		if runCtx == nil {
			runCtx = context.Background()
		}
		return fn(runCtx, store)
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List exported sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(runCtx context.Context, store *inventory.Store) error {
				sessions, err := store.Sessions(runCtx)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions exported")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						session.ID,
						session.CreatedAt.Local().Format(time.DateTime),
						strconv.Itoa(session.Assemblies),
						strconv.Itoa(session.Identities),
						strings.Join(session.Roots, ", "),
					})
				}
				writeRows(cmd, []string{"Session", "Created", "Assemblies", "Identities", "Roots"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
				return nil
			})
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show <session>",
		Short: "List the assemblies recorded in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(runCtx context.Context, store *inventory.Store) error {
				assemblies, err := store.Assemblies(runCtx, args[0])
				if err != nil {
					return err
				}
				if len(assemblies) == 0 {
					return fmt.Errorf("session %s not found or empty", args[0])
				}
				rows := make([][]string, 0, len(assemblies))
				for _, asm := range assemblies {
					rows = append(rows, []string{
						asm.Name, asm.Version, asm.Culture, asm.PublicKeyToken, asm.TargetFramework, yesNo(asm.Framework), asm.Path,
					})
				}
				writeRows(cmd, assemblyHeaders, rows, nil)
				return nil
			})
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "resolve <session> <reference>",
		Short: "Resolve a reference against a recorded session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(runCtx context.Context, store *inventory.Store) error {
				sanitized, name := assembly.Sanitize(args[1])
				for _, id := range []string{sanitized, assembly.FoldName(name)} {
					path, ok, err := store.Lookup(runCtx, args[0], id)
					if err != nil {
						return err
					}
					if ok {
						fmt.Fprintln(cmd.OutOrStdout(), path)
						return nil
					}
				}
				return fmt.Errorf("could not resolve %q in session %s", args[1], args[0])
			})
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "rm <session>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(runCtx context.Context, store *inventory.Store) error {
				if err := store.DeleteSession(runCtx, args[0]); err != nil {
					return fmt.Errorf("delete session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
				return nil
			})
		},
	})

	return historyCmd
}
