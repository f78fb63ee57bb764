// Package assembly reads identity metadata from .NET assembly files and
// defines the comparison rules used to pick between duplicate copies.
//
// ReadFromFile decodes the ECMA-335 metadata embedded in a PE image and
// returns an Info carrying the assembly name, version, culture, public key
// token and target framework. Info.IndexStrings lists every textual form an
// assembly reference may use to name the assembly, Sanitize normalizes a
// requested reference into the same shape, and PreferenceOrder ranks two
// copies of the same assembly so an index can pick a deterministic winner.
//
// Decoding failures are reported as *DecodeError so callers can skip the
// file and keep going.
package assembly
