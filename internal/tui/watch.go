// Package tui provides the live Bubble Tea view for orline watch.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/orline/internal/accrue"
	"github.com/theirongolddev/orline/internal/cli"
	"github.com/theirongolddev/orline/internal/statusline"
	"github.com/theirongolddev/orline/internal/tui/theme"
)

// ReconcileFunc runs one reconcile pass for the watched session.
type ReconcileFunc func(ctx context.Context) (accrue.Summary, error)

// ReconciledMsg is sent when a reconcile pass finishes.
type ReconciledMsg struct {
	Summary accrue.Summary
	Err     error
	Took    time.Duration
}

// transcriptChangedMsg is sent when the watcher reports a change.
type transcriptChangedMsg struct{}

type tickMsg struct{}

// Watch is the root Bubble Tea model for the watch command.
type Watch struct {
	session    string
	transcript string

	reconcile ReconcileFunc
	changes   <-chan struct{}
	interval  time.Duration
	formatter *statusline.Formatter
	now       func() time.Time

	// A reconcile is in flight. Another is never started while true;
	// changes seen meanwhile set dirty and trigger one more pass.
	running bool
	dirty   bool

	last     accrue.Summary
	lastErr  error
	lastAt   time.Time
	lastTook time.Duration
	hasRun   bool
	runs     int
	counted  int
	failures int

	spinner spinner.Model
	width   int
}

// WatchOptions configures NewWatch.
type WatchOptions struct {
	SessionID      string
	TranscriptPath string
	Reconcile      ReconcileFunc
	Changes        <-chan struct{} // optional; nil means interval polling only
	Interval       time.Duration
	Color          bool
}

// NewWatch creates the watch model. The first reconcile starts from Init.
func NewWatch(opts WatchOptions) Watch {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return Watch{
		session:    opts.SessionID,
		transcript: opts.TranscriptPath,
		reconcile:  opts.Reconcile,
		changes:    opts.Changes,
		interval:   interval,
		formatter:  statusline.NewFormatter(opts.Color),
		now:        time.Now,
		running:    true,
		spinner:    sp,
	}
}

// Init implements tea.Model.
func (w Watch) Init() tea.Cmd {
	return tea.Batch(
		reconcileCmd(w.reconcile),
		waitForChange(w.changes),
		tickCmd(w.interval),
		w.spinner.Tick,
	)
}

// Update implements tea.Model.
func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return w, tea.Quit
		case "r":
			return w.start()
		}
		return w, nil

	case transcriptChangedMsg:
		next, cmd := w.start()
		return next, tea.Batch(cmd, waitForChange(w.changes))

	case tickMsg:
		next, cmd := w.start()
		return next, tea.Batch(cmd, tickCmd(w.interval))

	case ReconciledMsg:
		w.running = false
		w.hasRun = true
		w.runs++
		w.lastAt = w.now()
		w.lastTook = msg.Took
		w.lastErr = msg.Err
		if msg.Err == nil {
			w.last = msg.Summary
			w.counted += msg.Summary.New - msg.Summary.Failed
			w.failures += msg.Summary.Failed
		}
		if w.dirty {
			w.dirty = false
			return w.start()
		}
		return w, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	}
	return w, nil
}

// start launches a reconcile unless one is already running, in which case
// it queues exactly one follow-up pass.
func (w Watch) start() (Watch, tea.Cmd) {
	if w.running {
		w.dirty = true
		return w, nil
	}
	w.running = true
	return w, reconcileCmd(w.reconcile)
}

// View implements tea.Model.
func (w Watch) View() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Width(14)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)
	retryStyle := lipgloss.NewStyle().Foreground(t.Orange)
	okStyle := lipgloss.NewStyle().Foreground(t.Green)

	cardWidth := 64
	if w.width > 0 && w.width-4 < cardWidth {
		cardWidth = max(w.width-4, 30)
	}
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(cardWidth)

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ orline watch"))
	if w.running {
		b.WriteString(" " + w.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(row("Session", cli.Truncate(w.session, cardWidth-18)))
	b.WriteString(row("Transcript", cli.Truncate(w.transcript, cardWidth-18)))
	b.WriteString("\n")

	if !w.hasRun {
		b.WriteString(dimStyle.Render("Reconciling..."))
		b.WriteString("\n")
	} else {
		b.WriteString(valueStyle.Render(w.formatter.Render(w.last)))
		b.WriteString("\n\n")
		b.WriteString(row("Total cost", cli.FormatExactCost(w.last.TotalCost)))
		b.WriteString(row("Cache saved", cli.FormatExactCost(w.last.CacheDiscount)))
		b.WriteString(row("Generations", cli.FormatNumber(int64(len(w.last.Record.SeenIDs)))))
		b.WriteString(row("This watch", fmt.Sprintf("%s counted, %s failed",
			okStyle.Render(cli.FormatNumber(int64(w.counted))),
			retryStyle.Render(cli.FormatNumber(int64(w.failures))))))
		b.WriteString(row("Last pass", fmt.Sprintf("%s (%s)",
			cli.FormatAge(w.lastAt, w.now()), w.lastTook.Round(time.Millisecond))))
		if w.lastErr != nil {
			b.WriteString("\n")
			b.WriteString(errStyle.Render(statusline.Error(w.lastErr)))
			b.WriteString("\n")
		}
	}

	help := dimStyle.Render("r refresh · q quit")
	return cardStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n" + help + "\n"
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// reconcileCmd runs one pass off the UI goroutine.
func reconcileCmd(fn ReconcileFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		sum, err := fn(context.Background())
		return ReconciledMsg{Summary: sum, Err: err, Took: time.Since(start)}
	}
}

// waitForChange blocks until the watcher reports a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return transcriptChangedMsg{}
	}
}
