package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"anonymizer/internal/mapping"
)

// WriteMappingFile writes forward to path in the mapping text format.
func WriteMappingFile(t testing.TB, path string, forward map[string]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, mapping.FormatText(forward), 0o644); err != nil {
		t.Fatalf("write mapping file %s: %v", path, err)
	}
}

// ReadFile returns the file content or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
