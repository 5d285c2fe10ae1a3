package testsupport

import (
	"testing"

	"anonymizer/internal/config"
	"anonymizer/internal/mapping"
)

// MustOpenStore opens the configured mapping store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) mapping.Store {
	t.Helper()

	store, err := mapping.Open(cfg)
	if err != nil {
		t.Fatalf("mapping.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
