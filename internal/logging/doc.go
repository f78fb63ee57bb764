// Package logging assembles structured slog loggers and formatting helpers used
// across asmref.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, tees a JSON session log into the configured log directory, and
// tags every record with the CLI session ID. The package also provides a
// no-op logger for tests and library code constructed without a logger.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
