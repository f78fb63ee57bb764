// Package preflight provides readiness checks for the filesystem paths and
// tools asmref depends on.
//
// The CLI "asmref doctor" command runs RunAll and renders the results.
// Optional results, such as a missing framework root or .NET host, are
// reported as warnings and do not fail the run.
package preflight
