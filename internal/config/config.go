package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Search contains the roots scanned for assemblies.
type Search struct {
	// Paths are files or directories; directories are walked recursively.
	Paths []string `toml:"paths"`
	// FrameworkPaths mark roots whose copies win over application copies.
	FrameworkPaths []string `toml:"framework_paths"`
	// Extensions are matched case-insensitively. Default: [".dll"]
	Extensions []string `toml:"extensions"`
}

// Index contains indexing settings.
type Index struct {
	// Workers bounds parallel metadata reads. 0 selects the CPU count.
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// Dir, when set, receives a JSON log file per session.
	Dir string `toml:"dir"`
	// RetentionDays prunes session logs older than this. 0 keeps everything.
	RetentionDays int `toml:"retention_days"`
}

// Export contains configuration for the SQLite inventory.
type Export struct {
	Database string `toml:"database"`
}

// Config encapsulates all configuration values for asmref.
type Config struct {
	Search  Search  `toml:"search"`
	Index   Index   `toml:"index"`
	Logging Logging `toml:"logging"`
	Export  Export  `toml:"export"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ApplyOverrides replaces configured values with command-line overrides.
// Empty slices and zero values leave the loaded settings untouched. The
// result is normalized and validated again.
func (c *Config) ApplyOverrides(paths, frameworkPaths []string, workers int, level string) error {
	if len(paths) > 0 {
		c.Search.Paths = append([]string(nil), paths...)
	}
	if len(frameworkPaths) > 0 {
		c.Search.FrameworkPaths = append([]string(nil), frameworkPaths...)
	}
	if workers > 0 {
		c.Index.Workers = workers
	}
	if strings.TrimSpace(level) != "" {
		c.Logging.Level = level
	}
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// WorkerCount returns the effective parallelism for metadata reads.
func (c *Config) WorkerCount() int {
	if c.Index.Workers > 0 {
		return c.Index.Workers
	}
	return runtime.NumCPU()
}

// EnsureDirectories creates the log and export directories when configured.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.Dir}
	if c.Export.Database != "" {
		dirs = append(dirs, filepath.Dir(c.Export.Database))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
