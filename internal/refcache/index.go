package refcache

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"asmref/internal/assembly"
	"asmref/internal/logging"
)

// decodeAll reads every candidate with up to workers goroutines and returns
// the successfully decoded records keyed by path plus the failure count.
func (c *Cache) decodeAll(ctx context.Context, candidates map[string]struct{}) (map[string]*assembly.Info, int, error) {
	paths := make([]string, 0, len(candidates))
	for path := range candidates {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	var (
		mu     sync.Mutex
		byFile = make(map[string]*assembly.Info, len(paths))
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, ok := c.decode(path)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				byFile[path] = info
			} else {
				failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return byFile, failed, nil
}

// decode runs the reader on one file. Failures are logged and reported as
// !ok. The returned record always carries path.
func (c *Cache) decode(path string) (*assembly.Info, bool) {
	info, err := c.opts.reader(path)
	if err == nil && info == nil {
		err = &assembly.DecodeError{Path: path, Err: assembly.ErrNoMetadata}
	}
	if err != nil {
		c.logger.Info("assembly metadata unreadable; file skipped",
			logging.String(logging.FieldEventType, "assembly_decode_failed"),
			logging.Path(path),
			logging.Error(err),
		)
		return nil, false
	}
	if info.Path != path {
		clone := *info
		clone.Path = path
		info = &clone
	}
	return info, true
}

// buildIDIndex maps every identity string to its winning record. Records are
// ordered by name and then by preference; later records overwrite earlier
// ones, so the most preferred copy owns each shared identity string.
func buildIDIndex(byFile map[string]*assembly.Info, preference Preference) map[string]*assembly.Info {
	records := make([]*assembly.Info, 0, len(byFile))
	for _, info := range byFile {
		records = append(records, info)
	}
	slices.SortFunc(records, func(a, b *assembly.Info) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := preference(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})

	byID := make(map[string]*assembly.Info, len(records)*4)
	for _, info := range records {
		for _, id := range info.IndexStrings() {
			byID[id] = info
		}
	}
	return byID
}
