package config

import (
	"os"
	"path/filepath"
	"testing"
)

func ptr(s string) *string { return &s }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func getenv(name string) string { return os.Getenv(name) }

// unsetEnv removes name for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "") // registers restore
	if err := os.Unsetenv(name); err != nil {
		t.Fatal(err)
	}
}

func setOrUnset(t *testing.T, name string, v *string) {
	t.Helper()
	if v == nil {
		unsetEnv(t, name)
		return
	}
	t.Setenv(name, *v)
}
