package inventory

import "time"

// Snapshot is one indexing session ready to be persisted.
type Snapshot struct {
	SessionID      string
	CreatedAt      time.Time
	Roots          []string
	FrameworkRoots []string
	Assemblies     []Assembly
	Identities     []Identity
}

// Assembly is one indexed assembly file.
type Assembly struct {
	Path            string
	Name            string
	Version         string
	Culture         string
	PublicKeyToken  string
	TargetFramework string
	Framework       bool
}

// Identity maps an identity string to the path that won it.
type Identity struct {
	ID   string
	Path string
}

// Session summarises a stored snapshot.
type Session struct {
	ID             string
	CreatedAt      time.Time
	Roots          []string
	FrameworkRoots []string
	Assemblies     int
	Identities     int
}
