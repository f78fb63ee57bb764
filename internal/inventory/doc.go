// Package inventory persists resolver snapshots in SQLite.
//
// A snapshot records one indexing session: the search and framework roots,
// every indexed assembly, and every identity string with the path that won it.
// Snapshots are written in a single transaction that retries on SQLITE_BUSY,
// and an exclusive file lock beside the database serialises concurrent
// exports from separate processes.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package inventory
