// Package statusline renders an accrue.Summary as the single line shown in
// the editor status bar.
package statusline

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/orline/internal/accrue"
)

// Fixed diagnostics printed instead of a summary.
const (
	MsgMissingKey   = "Set ANTHROPIC_AUTH_TOKEN or ANTHROPIC_API_KEY to use the OpenRouter statusline"
	MsgInvalidInput = "Invalid statusline input"
)

const (
	markerUpdated  = "✅️"
	markerRetrying = "🔄"
	creditsNA      = "N/A"
)

// Formatter turns summaries into display lines. The zero value is not usable;
// construct one with NewFormatter.
type Formatter struct {
	ok    lipgloss.Style
	retry lipgloss.Style
}

// NewFormatter returns a formatter. With color enabled the status markers use
// basic ANSI green and red regardless of what the output is attached to,
// since the status bar host interprets the escapes itself.
func NewFormatter(color bool) *Formatter {
	r := lipgloss.NewRenderer(io.Discard)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Formatter{
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		retry: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Render formats s as one line without a trailing newline.
func (f *Formatter) Render(s accrue.Summary) string {
	line := fmt.Sprintf("$%.4f(-$%.2f) | Credits: %s%s",
		s.TotalCost, s.CacheDiscount, credits(s), f.marker(s.Status))
	if s.Provider == "" {
		return line
	}
	return fmt.Sprintf("%s(%s) | %s", s.Model, s.Provider, line)
}

// Error formats an unexpected failure.
func Error(err error) string {
	return "error: " + err.Error()
}

func credits(s accrue.Summary) string {
	if !s.CreditsKnown {
		return creditsNA
	}
	return fmt.Sprintf("$%.2f", s.Credits)
}

func (f *Formatter) marker(st accrue.Status) string {
	switch st {
	case accrue.StatusUpdated:
		return " " + f.ok.Render(markerUpdated)
	case accrue.StatusRetrying:
		return " " + f.retry.Render(markerRetrying)
	default:
		return ""
	}
}
