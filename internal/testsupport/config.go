package testsupport

import (
	"path/filepath"
	"testing"

	"asmref/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The search root is <base>/apps and the framework root <base>/dotnet/shared;
// neither is created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Search.Paths = []string{filepath.Join(base, "apps")}
	cfgVal.Search.FrameworkPaths = []string{filepath.Join(base, "dotnet", "shared")}
	cfgVal.Index.Workers = 2
	cfgVal.Export.Database = filepath.Join(base, "data", "inventory.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSearchPaths replaces the search roots on the test config.
func WithSearchPaths(paths ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.Paths = paths
	}
}

// WithFrameworkPaths replaces the framework roots on the test config.
func WithFrameworkPaths(paths ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.FrameworkPaths = paths
	}
}

// WithLogDir enables the JSON log file under <base>/logs.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Export.Database))
}
