package preflight

import (
	"path/filepath"

	"asmref/internal/config"
	"asmref/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results do not fail the run.
	Optional bool
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if len(cfg.Search.Paths) == 0 {
		results = append(results, Result{Name: "Search paths", Detail: "none configured"})
	}
	for _, path := range cfg.Search.Paths {
		results = append(results, CheckSearchPath("Search path", path))
	}
	for _, path := range cfg.Search.FrameworkPaths {
		result := CheckSearchPath("Framework path", path)
		result.Optional = true
		results = append(results, result)
	}

	if cfg.Logging.Dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	}
	if cfg.Export.Database != "" {
		results = append(results, CheckDirectoryAccess("Inventory directory", filepath.Dir(cfg.Export.Database)))
	}

	results = append(results, fromStatus(deps.CheckDotnetHost()))
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return true
		}
	}
	return false
}

func fromStatus(status deps.Status) Result {
	detail := status.Command
	if status.Detail != "" {
		if detail != "" {
			detail += " "
		}
		detail += "(" + status.Detail + ")"
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Detail:   detail,
		Optional: status.Optional,
	}
}
