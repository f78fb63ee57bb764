// Package config loads, normalizes, and validates asmref configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the DOTNET_ROOT environment fallback for framework
// roots. The Config type centralizes the search roots, indexing parallelism,
// logging, and export settings the CLI needs.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical extensions, and clear validation errors.
package config
