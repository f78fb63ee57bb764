package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeSearch(); err != nil {
		return err
	}
	if err := c.normalizeExport(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeSearch() error {
	var err error
	if c.Search.Paths, err = expandPaths("search.paths", c.Search.Paths); err != nil {
		return err
	}
	if len(c.Search.FrameworkPaths) == 0 {
		c.Search.FrameworkPaths = dotnetFrameworkPaths()
	}
	if c.Search.FrameworkPaths, err = expandPaths("search.framework_paths", c.Search.FrameworkPaths); err != nil {
		return err
	}

	extensions := make([]string, 0, len(c.Search.Extensions))
	seen := make(map[string]struct{}, len(c.Search.Extensions))
	for _, ext := range c.Search.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		extensions = append(extensions, ext)
	}
	if len(extensions) == 0 {
		extensions = []string{defaultExtension}
	}
	c.Search.Extensions = extensions
	return nil
}

// dotnetFrameworkPaths derives framework roots from DOTNET_ROOT.
func dotnetFrameworkPaths() []string {
	root, ok := os.LookupEnv(dotnetRootEnv)
	if !ok || strings.TrimSpace(root) == "" {
		return nil
	}
	root = strings.TrimSpace(root)
	return []string{
		filepath.Join(root, dotnetSharedSubdir),
		filepath.Join(root, dotnetPacksSubdir),
	}
}

func expandPaths(key string, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		expanded, err := expandPath(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		out = append(out, expanded)
	}
	return out, nil
}

func (c *Config) normalizeExport() error {
	var err error
	c.Export.Database = strings.TrimSpace(c.Export.Database)
	if c.Export.Database == "" {
		c.Export.Database = defaultExportDB
	}
	if c.Export.Database, err = expandPath(c.Export.Database); err != nil {
		return fmt.Errorf("export.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
