package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFold_DoesNotMutateReceiver(t *testing.T) {
	base := Record{
		SeenIDs:      make([]string, 1, 8), // spare capacity would expose aliasing
		TotalCost:    1,
		LastProvider: "OpenAI",
	}
	base.SeenIDs[0] = "gen-0"
	snapshot := Record{SeenIDs: []string{"gen-0"}, TotalCost: 1, LastProvider: "OpenAI"}

	a := base.Fold(Entry{ID: "gen-a", Cost: 0.5})
	b := base.Fold(Entry{ID: "gen-b", Cost: 0.25})

	if diff := cmp.Diff(snapshot, base); diff != "" {
		t.Errorf("receiver mutated (-want +got):\n%s", diff)
	}
	if a.SeenIDs[1] != "gen-a" || b.SeenIDs[1] != "gen-b" {
		t.Errorf("folds share backing storage: a=%v b=%v", a.SeenIDs, b.SeenIDs)
	}
}

func TestFold_Accumulates(t *testing.T) {
	rec := Record{}.
		Fold(Entry{ID: "gen-1", Cost: 0.01, Provider: "OpenAI"}).
		Fold(Entry{ID: "gen-2", Cost: 0.02, CacheDiscount: 0.005, Provider: "OpenAI", Model: "openrouter/gpt-4-20240101"}).
		Fold(Entry{ID: "gen-3", Cost: 0.0})

	want := Record{
		SeenIDs:            []string{"gen-1", "gen-2", "gen-3"},
		TotalCost:          0.01 + 0.02,
		TotalCacheDiscount: 0.005,
		LastProvider:       "OpenAI",
		LastModel:          "openrouter/gpt-4-20240101",
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Fold mismatch (-want +got):\n%s", diff)
	}
}

func TestSeen(t *testing.T) {
	set := Record{SeenIDs: []string{"gen-1", "gen-2"}}.Seen()
	if _, ok := set["gen-1"]; !ok {
		t.Error("gen-1 missing from set")
	}
	if _, ok := set["gen-3"]; ok {
		t.Error("gen-3 unexpectedly present")
	}
	if len(Record{}.Seen()) != 0 {
		t.Error("zero record should have empty set")
	}
}

func TestFold_SumsWithoutDrift(t *testing.T) {
	rec := Record{}
	for i := 0; i < 10; i++ {
		rec = rec.Fold(Entry{ID: "gen-" + string(rune('a'+i)), Cost: 0.1, CacheDiscount: 0.01})
	}
	if rec.TotalCost != 1.0 {
		t.Errorf("TotalCost = %v, want exactly 1", rec.TotalCost)
	}
	if rec.TotalCacheDiscount != 0.1 {
		t.Errorf("TotalCacheDiscount = %v, want exactly 0.1", rec.TotalCacheDiscount)
	}

	sum := Record{}.Fold(Entry{ID: "gen-1", Cost: 0.1}).Fold(Entry{ID: "gen-2", Cost: 0.2})
	if sum.TotalCost != 0.3 {
		t.Errorf("0.1 + 0.2 = %v, want 0.3", sum.TotalCost)
	}
}
