package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"passlaunch/internal/workdir"
)

// SeedWorkDir creates base/name containing a tasks file and returns its path.
func SeedWorkDir(t testing.TB, base, name string) string {
	t.Helper()

	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, workdir.TasksFile), []byte("task-0\n"), 0o644); err != nil {
		t.Fatalf("write tasks file: %v", err)
	}
	return dir
}

// ReadFile returns the contents of path, failing the test on error.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
