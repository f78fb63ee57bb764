package refcache

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"asmref/internal/logging"
)

// Scan collects candidate assembly files from paths. Files are taken as
// given; directories are walked recursively for files with a configured
// extension. Missing paths and unreadable entries are logged and skipped.
// The only error is the context's.
func Scan(ctx context.Context, paths []string, opts ...Option) (map[string]struct{}, error) {
	o := newOptions(opts)
	return scan(ctx, paths, o.extensions, logging.NewComponentLogger(o.logger, "scanner"))
}

func scan(ctx context.Context, paths []string, extensions []string, logger *slog.Logger) (map[string]struct{}, error) {
	candidates := make(map[string]struct{})
	for _, root := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}

		info, err := os.Stat(root)
		if err != nil {
			logger.Info("search path not found; skipped",
				logging.String(logging.FieldEventType, "search_path_missing"),
				logging.String(logging.FieldRoot, root),
			)
			continue
		}
		if !info.IsDir() {
			candidates[root] = struct{}{}
			continue
		}
		if err := walkRoot(ctx, root, extensions, candidates, logger); err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

func walkRoot(ctx context.Context, root string, extensions []string, candidates map[string]struct{}, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Debug("directory entry unreadable; skipped",
				logging.Path(path),
				logging.Error(err),
			)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if hasExtension(path, extensions) {
			candidates[path] = struct{}{}
		}
		return nil
	})
}

func hasExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, want := range extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
