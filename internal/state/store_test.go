package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeState(t *testing.T, s *Store, sessionID, content string) {
	t.Helper()
	if err := os.WriteFile(s.Path(sessionID), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := NewStore(t.TempDir())
	got := s.Load("fresh")
	if diff := cmp.Diff(Record{SeenIDs: []string{}}, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Resets(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"not json", "{{{"},
		{"seen_ids object", `{"seen_ids":{"gen-1":true},"total_cost":5}`},
		{"seen_ids string", `{"seen_ids":"gen-1","total_cost":5}`},
		{"seen_ids missing", `{"total_cost":5,"last_model":"x"}`},
		{"top-level array", `["gen-1"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(t.TempDir())
			writeState(t, s, "sess", tt.content)

			got := s.Load("sess")
			if diff := cmp.Diff(Record{SeenIDs: []string{}}, got); diff != "" {
				t.Errorf("expected zero record (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_FieldLevelDefaults(t *testing.T) {
	s := NewStore(t.TempDir())
	writeState(t, s, "sess", `{
		"seen_ids": ["gen-1", 7, null, "gen-2"],
		"total_cost": "lots",
		"total_cache_discount": 0.25,
		"last_provider": 42,
		"last_model": "anthropic/claude-sonnet-4-20250514"
	}`)

	want := Record{
		SeenIDs:            []string{"gen-1", "gen-2"},
		TotalCost:          0,
		TotalCacheDiscount: 0.25,
		LastProvider:       "",
		LastModel:          "anthropic/claude-sonnet-4-20250514",
	}
	if diff := cmp.Diff(want, s.Load("sess")); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveThenLoad(t *testing.T) {
	s := NewStore(t.TempDir())
	rec := Record{
		SeenIDs:            []string{"gen-1", "gen-2"},
		TotalCost:          0.03,
		TotalCacheDiscount: 0.005,
		LastProvider:       "OpenAI",
		LastModel:          "openrouter/gpt-4-20240101",
	}

	if err := s.Save("sess", rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if diff := cmp.Diff(rec, s.Load("sess")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Save("sess", Record{SeenIDs: []string{"gen-1"}, TotalCost: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("sess", Record{TotalCost: 2}); err != nil {
		t.Fatal(err)
	}

	got := s.Load("sess")
	if diff := cmp.Diff(Record{SeenIDs: []string{}, TotalCost: 2}, got); diff != "" {
		t.Errorf("Save should fully overwrite (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want only the state file", names)
	}
}

func TestSave_WritesExpectedShape(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Save("sess", Record{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.Path("sess"))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"seen_ids": []`, `"total_cost": 0`, `"total_cache_discount": 0`, `"last_provider": ""`, `"last_model": ""`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("state file missing %s:\n%s", key, data)
		}
	}
}

func TestSave_UnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(filepath.Join(blocker, "state"))
	if err := s.Save("sess", Record{}); err == nil {
		t.Fatal("expected error when state dir cannot be created")
	}
}

func TestPath(t *testing.T) {
	s := NewStore("/tmp/orline")
	tests := []struct {
		id   string
		want string
	}{
		{"abc-123", "/tmp/orline/claude-openrouter-cost-abc-123.json"},
		{"../../etc/passwd", "/tmp/orline/claude-openrouter-cost-____etc_passwd.json"},
		{`a\b`, "/tmp/orline/claude-openrouter-cost-a_b.json"},
	}
	for _, tt := range tests {
		if got := s.Path(tt.id); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNewStore_DefaultsToTempDir(t *testing.T) {
	if got := NewStore("").Dir(); got != os.TempDir() {
		t.Errorf("Dir = %q, want %q", got, os.TempDir())
	}
}
