package refcache

import (
	"log/slog"
	"runtime"
	"strings"

	"asmref/internal/assembly"
	"asmref/internal/logging"
)

// Reader decodes the assembly identity of a single file.
type Reader func(path string) (*assembly.Info, error)

// Sanitizer normalizes a requested reference into an identity string and
// returns its bare name.
type Sanitizer func(id string) (sanitized string, name string)

// Preference ranks two records for the same identity; the greater one wins.
type Preference func(a, b *assembly.Info) int

// Option customizes a Cache or a Scan.
type Option func(*options)

type options struct {
	reader     Reader
	sanitize   Sanitizer
	preference Preference
	logger     *slog.Logger
	workers    int
	extensions []string
}

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".dll"}

func newOptions(opts []Option) options {
	o := options{
		reader:     assembly.ReadFromFile,
		sanitize:   assembly.Sanitize,
		workers:    runtime.NumCPU(),
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// WithReader replaces the metadata reader.
func WithReader(reader Reader) Option {
	return func(o *options) {
		if reader != nil {
			o.reader = reader
		}
	}
}

// WithSanitizer replaces the reference normalizer.
func WithSanitizer(sanitize Sanitizer) Option {
	return func(o *options) {
		if sanitize != nil {
			o.sanitize = sanitize
		}
	}
}

// WithPreference replaces the collision order derived from the framework paths.
func WithPreference(preference Preference) Option {
	return func(o *options) {
		o.preference = preference
	}
}

// WithLogger sets the base logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkers bounds the number of files decoded concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithExtensions sets the file extensions collected from directories.
// Matching ignores case; a missing leading dot is added.
func WithExtensions(extensions ...string) Option {
	return func(o *options) {
		normalized := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized = append(normalized, ext)
		}
		if len(normalized) > 0 {
			o.extensions = normalized
		}
	}
}
