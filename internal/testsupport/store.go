package testsupport

import (
	"testing"

	"photoflow/internal/config"
	"photoflow/internal/registry"
)

// MustOpenStore opens a SQLite registry under the config's data directory
// and closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg.RegistryPath())
	if err != nil {
		t.Fatalf("open registry store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
