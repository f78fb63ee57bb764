package refcache

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"asmref/internal/assembly"
	"asmref/internal/logging"
)

// Cache holds the indexes for one resolution session. It is safe for
// concurrent use.
type Cache struct {
	mu     sync.Mutex
	byFile map[string]*assembly.Info
	byID   map[string]*assembly.Info
	failed map[string]struct{}

	frameworkPaths []string
	opts           options
	logger         *slog.Logger
	stats          Stats
}

// Stats summarises a Cache.
type Stats struct {
	// Candidates is the number of files found by the scan.
	Candidates int
	// Indexed is the number of files in the by-file index.
	Indexed int
	// DecodeFailures counts candidates whose metadata could not be read.
	DecodeFailures int
	// Identities is the number of identity strings in the by-id index.
	Identities int
	// Unresolved is the size of the negative cache.
	Unresolved int
	// Elapsed is the construction time.
	Elapsed time.Duration
}

// Identity pairs an identity string with the record that owns it.
type Identity struct {
	ID   string
	Info *assembly.Info
}

// New scans paths, decodes every candidate, and builds the indexes.
// frameworkPaths only bias collisions; they are not scanned unless also
// listed in paths. The only error returned is ctx's.
func New(ctx context.Context, paths, frameworkPaths []string, opts ...Option) (*Cache, error) {
	started := time.Now()
	o := newOptions(opts)
	if o.preference == nil {
		o.preference = assembly.PreferenceOrder(frameworkPaths)
	}

	c := &Cache{
		failed:         make(map[string]struct{}),
		frameworkPaths: assembly.CleanRoots(frameworkPaths),
		opts:           o,
		logger:         logging.NewComponentLogger(o.logger, "refcache"),
	}

	candidates, err := scan(ctx, paths, o.extensions, logging.NewComponentLogger(o.logger, "scanner"))
	if err != nil {
		return nil, err
	}
	byFile, failed, err := c.decodeAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	c.byFile = byFile
	c.byID = buildIDIndex(byFile, o.preference)
	c.stats = Stats{
		Candidates:     len(candidates),
		Indexed:        len(byFile),
		DecodeFailures: failed,
		Identities:     len(c.byID),
		Elapsed:        time.Since(started),
	}

	c.logger.Info("assembly index built",
		logging.String(logging.FieldEventType, "index_built"),
		logging.Int("candidates", c.stats.Candidates),
		logging.Int("indexed", c.stats.Indexed),
		logging.Int("failed", c.stats.DecodeFailures),
		logging.Int("identities", c.stats.Identities),
		logging.Duration("duration", c.stats.Elapsed),
		logging.Strings("framework_paths", c.frameworkPaths),
	)
	return c, nil
}

// Resolve returns the record for a reference such as
// "System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a".
// An exact identity match is tried first, then the case-folded bare name.
// Misses are remembered: later calls with the same reference fail without
// consulting the sanitizer. The error is a *ResolutionError.
func (c *Cache) Resolve(id string) (*assembly.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.failed[id]; ok {
		return nil, &ResolutionError{ID: id}
	}

	sanitized, name := c.opts.sanitize(id)
	if _, ok := c.failed[sanitized]; ok {
		c.failed[id] = struct{}{}
		return nil, &ResolutionError{ID: id}
	}
	if info, ok := c.byID[sanitized]; ok {
		return info, nil
	}

	folded := assembly.FoldName(name)
	if info, ok := c.byID[folded]; ok {
		c.byID[folded] = info
		c.logger.Debug("resolved by bare name",
			logging.String(logging.FieldAssemblyID, id),
			logging.Path(info.Path),
		)
		return info, nil
	}

	c.failed[sanitized] = struct{}{}
	c.failed[id] = struct{}{}
	c.logger.Debug("assembly reference unresolved",
		logging.String(logging.FieldAssemblyID, id),
		logging.String("sanitized", sanitized),
	)
	return nil, &ResolutionError{ID: id}
}

// Lookup is Resolve with a found flag instead of an error.
func (c *Cache) Lookup(id string) (*assembly.Info, bool) {
	info, err := c.Resolve(id)
	return info, err == nil
}

// GetAssemblyInfo returns the record for a file, decoding and adding it to
// the by-file index when it was not part of the scan. Records added this way
// are not visible to Resolve.
func (c *Cache) GetAssemblyInfo(path string) (*assembly.Info, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if info, ok := c.byFile[key]; ok {
		return info, nil
	}
	if info, ok := c.decode(key); ok {
		c.byFile[key] = info
	}
	if info, ok := c.byFile[key]; ok {
		return info, nil
	}
	return nil, &ResolutionError{ID: path}
}

// AllAssemblies returns every record in the by-file index, ordered by path.
func (c *Cache) AllAssemblies() []*assembly.Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*assembly.Info, 0, len(c.byFile))
	for _, info := range c.byFile {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b *assembly.Info) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Identities returns the by-id index ordered by identity string.
func (c *Cache) Identities() []Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Identity, 0, len(c.byID))
	for id, info := range c.byID {
		out = append(out, Identity{ID: id, Info: info})
	}
	slices.SortFunc(out, func(a, b Identity) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// IsFramework reports whether info lies under one of the framework paths.
func (c *Cache) IsFramework(info *assembly.Info) bool {
	return info != nil && assembly.IsFrameworkPath(info.Path, c.frameworkPaths)
}

// Stats returns index and negative-cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Indexed = len(c.byFile)
	stats.Identities = len(c.byID)
	stats.Unresolved = len(c.failed)
	return stats
}
