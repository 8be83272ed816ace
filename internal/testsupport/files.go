package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with contents, creating parent directories
// as needed. Handy for planting hand-edited tables in a versioned tree.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the contents of path, failing the test if it cannot be
// read.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
