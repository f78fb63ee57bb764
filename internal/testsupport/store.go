package testsupport

import (
	"testing"

	"asmref/internal/config"
	"asmref/internal/inventory"
)

// MustOpenInventory opens the configured inventory database for tests and
// registers cleanup.
func MustOpenInventory(t testing.TB, cfg *config.Config) *inventory.Store {
	t.Helper()

	store, err := inventory.Open(cfg.Export.Database)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
