package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"asmref/internal/config"
	"asmref/internal/inventory"
	"asmref/internal/logging"
	"asmref/internal/refcache"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the index to the SQLite inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.databasePath(dbPath)
			if err != nil {
				return err
			}
			cache, err := ctx.buildCache(cmd)
			if err != nil {
				return err
			}
			runCtx, logger, err := ctx.session(cmd)
			if err != nil {
				return err
			}
			logger = logging.NewComponentLogger(logger, "export")

			snap := snapshotFromCache(ctx.sessionID, ctx.config, cache)
			store, err := inventory.Open(path)
			if err != nil {
				return fmt.Errorf("open inventory: %w", err)
			}
			defer store.Close()

			if err := store.WriteSnapshot(runCtx, snap); err != nil {
				logging.ErrorWithContext(logger, "inventory export failed", "export_failed",
					logging.Path(path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check that no other process holds the inventory lock"),
				)
				return fmt.Errorf("write inventory: %w", err)
			}
			logger.Info("inventory exported",
				logging.String(logging.FieldEventType, "export_completed"),
				logging.Path(path),
				logging.Int("assemblies", len(snap.Assemblies)),
				logging.Int("identities", len(snap.Identities)),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "Exported session %s: %d assemblies, %d identities to %s\n",
				snap.SessionID, len(snap.Assemblies), len(snap.Identities), store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Inventory database path (default: export.database)")
	return cmd
}

// databasePath resolves the --db flag against export.database.
func (c *commandContext) databasePath(flagValue string) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return "", fmt.Errorf("resolve database path: %w", err)
		}
		return expanded, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Export.Database == "" {
		return "", fmt.Errorf("no inventory database configured; set export.database or pass --db")
	}
	return cfg.Export.Database, nil
}

func snapshotFromCache(sessionID string, cfg *config.Config, cache *refcache.Cache) inventory.Snapshot {
	snap := inventory.Snapshot{
		SessionID:      sessionID,
		CreatedAt:      time.Now(),
		Roots:          cfg.Search.Paths,
		FrameworkRoots: cfg.Search.FrameworkPaths,
	}
	for _, info := range cache.AllAssemblies() {
		snap.Assemblies = append(snap.Assemblies, inventory.Assembly{
			Path:            info.Path,
			Name:            info.Name,
			Version:         info.Version.String(),
			Culture:         info.Culture,
			PublicKeyToken:  info.PublicKeyToken,
			TargetFramework: info.TargetFramework,
			Framework:       cache.IsFramework(info),
		})
	}
	for _, identity := range cache.Identities() {
		snap.Identities = append(snap.Identities, inventory.Identity{
			ID:   identity.ID,
			Path: identity.Info.Path,
		})
	}
	return snap
}
