// Package main hosts the asmref CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, builds one reference cache per
// invocation, and surfaces resolution, listing, lazy file lookup, inventory
// export, and preflight checks. Output is a rounded table on a terminal,
// tab-separated rows when piped, or JSON with --json.
//
// Keep this package lean: resolution behaviour belongs in internal/refcache
// and metadata decoding in internal/assembly.
package main
