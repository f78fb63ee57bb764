// Package refcache resolves assembly reference strings to assembly files.
//
// New scans the search paths for candidate files, decodes each candidate's
// identity, and builds two indexes: one keyed by file path and one keyed by
// every identity string a record exposes. When several files claim the same
// identity string, the copy ranked highest by the preference order wins.
//
// Resolve normalizes a reference, tries the exact identity string, then falls
// back to the case-folded bare name. Failed references are remembered for the
// life of the Cache so repeated misses cost a single map lookup. Unreadable
// files are logged and skipped; they never fail construction.
package refcache
