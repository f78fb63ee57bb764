package assembly

import (
	"os"
	"path/filepath"
	"strings"
)

// PreferenceOrder returns a comparison ranking two copies of an assembly.
// The greater copy is preferred. In increasing preference:
//
//  1. copies outside the framework paths before copies inside them
//  2. lower .NETCoreApp target version before higher
//  3. lower assembly version before higher
//  4. path, ordinal
//
// Distinct paths never compare equal, so the order is total.
func PreferenceOrder(frameworkPaths []string) func(a, b *Info) int {
	roots := CleanRoots(frameworkPaths)
	return func(a, b *Info) int {
		if c := compareBool(IsFrameworkPath(a.Path, roots), IsFrameworkPath(b.Path, roots)); c != 0 {
			return c
		}
		if c := a.NetCoreVersion.Compare(b.NetCoreVersion); c != 0 {
			return c
		}
		if c := a.Version.Compare(b.Version); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	}
}

// CleanRoots trims, drops empty entries, and makes each root absolute so it
// compares against the absolute paths the scanner produces.
func CleanRoots(paths []string) []string {
	roots := make([]string, 0, len(paths))
	for _, root := range paths {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		} else {
			root = filepath.Clean(root)
		}
		roots = append(roots, root)
	}
	return roots
}

// IsFrameworkPath reports whether path is one of the framework roots or lies
// beneath one. Roots match whole path elements and ignore case, so
// "/usr/share/dotnet" does not claim "/usr/share/dotnet-preview".
func IsFrameworkPath(path string, frameworkPaths []string) bool {
	for _, root := range frameworkPaths {
		if root == "" || len(path) < len(root) {
			continue
		}
		if !strings.EqualFold(path[:len(root)], root) {
			continue
		}
		if len(path) == len(root) || os.IsPathSeparator(path[len(root)]) || os.IsPathSeparator(root[len(root)-1]) {
			return true
		}
	}
	return false
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
