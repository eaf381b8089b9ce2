package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/orline/internal/accrue"
	"github.com/theirongolddev/orline/internal/state"
)

func newTestWatch(calls *int) Watch {
	w := NewWatch(WatchOptions{
		SessionID:      "sess-1",
		TranscriptPath: "/tmp/t.jsonl",
		Interval:       time.Second,
		Reconcile: func(context.Context) (accrue.Summary, error) {
			*calls++
			return accrue.Summary{
				Model: "gpt-4", Provider: "OpenAI",
				TotalCost: 0.03, CacheDiscount: 0.005,
				Status: accrue.StatusUpdated, New: 2,
				Record: state.Record{SeenIDs: []string{"gen-1", "gen-2"}},
			}, nil
		},
	})
	w.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return w
}

func update(t *testing.T, w Watch, msg tea.Msg) (Watch, tea.Cmd) {
	t.Helper()
	m, cmd := w.Update(msg)
	next, ok := m.(Watch)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return next, cmd
}

func TestWatchStartsRunning(t *testing.T) {
	var calls int
	w := newTestWatch(&calls)
	if !w.running {
		t.Fatal("first reconcile should be in flight after NewWatch")
	}
	if !strings.Contains(w.View(), "Reconciling") {
		t.Errorf("pre-result view:\n%s", w.View())
	}
}

func TestWatchSingleFlight(t *testing.T) {
	var calls int
	w := newTestWatch(&calls)

	// A tick while running must not start a second pass.
	w, cmd := update(t, w, tickMsg{})
	if !w.dirty {
		t.Error("tick during a run should queue a follow-up")
	}
	if cmd == nil {
		t.Error("tick should reschedule itself")
	}

	// Finishing the run starts the queued follow-up exactly once.
	w, cmd = update(t, w, ReconciledMsg{Summary: accrue.Summary{New: 1}})
	if !w.running || w.dirty {
		t.Fatalf("running=%v dirty=%v after queued follow-up", w.running, w.dirty)
	}
	if cmd == nil {
		t.Fatal("expected reconcile command")
	}
	msg := cmd()
	if _, ok := msg.(ReconciledMsg); !ok {
		t.Fatalf("cmd produced %T, want ReconciledMsg", msg)
	}
	if calls != 1 {
		t.Errorf("reconcile called %d times, want 1", calls)
	}

	w, _ = update(t, w, msg)
	if w.running {
		t.Error("should be idle after the follow-up completes")
	}
	if w.runs != 2 {
		t.Errorf("runs = %d, want 2", w.runs)
	}
}

func TestWatchManualRefresh(t *testing.T) {
	var calls int
	w := newTestWatch(&calls)
	w, _ = update(t, w, ReconciledMsg{})

	w, cmd := update(t, w, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if !w.running || cmd == nil {
		t.Fatal("r should start a reconcile when idle")
	}
	cmd()
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestWatchQuit(t *testing.T) {
	var calls int
	w := newTestWatch(&calls)
	_, cmd := update(t, w, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce QuitMsg")
	}
}

func TestWatchViewAfterResult(t *testing.T) {
	var calls int
	w := newTestWatch(&calls)
	msg := reconcileCmd(w.reconcile)()
	w, _ = update(t, w, msg)

	view := w.View()
	for _, want := range []string{"gpt-4(OpenAI) | $0.0300(-$0.01)", "sess-1", "2 counted"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if w.counted != 2 {
		t.Errorf("counted = %d, want 2", w.counted)
	}
}

func TestWatchKeepsLastSummaryOnError(t *testing.T) {
	var calls int
	w := newTestWatch(&calls)
	w, _ = update(t, w, reconcileCmd(w.reconcile)())
	w, _ = update(t, w, ReconciledMsg{Err: errors.New("saving session state: disk full")})

	if w.last.TotalCost != 0.03 {
		t.Errorf("last summary lost on error: %+v", w.last)
	}
	if !strings.Contains(w.View(), "error: saving session state: disk full") {
		t.Errorf("error not shown:\n%s", w.View())
	}
}

func TestWaitForChange(t *testing.T) {
	if waitForChange(nil) != nil {
		t.Error("nil channel should yield no command")
	}
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	if _, ok := waitForChange(ch)().(transcriptChangedMsg); !ok {
		t.Error("expected transcriptChangedMsg")
	}
	close(ch)
	if msg := waitForChange(ch)(); msg != nil {
		t.Errorf("closed channel produced %T", msg)
	}
}
