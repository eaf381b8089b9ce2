package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/orline/internal/accrue"
	"github.com/theirongolddev/orline/internal/config"
	"github.com/theirongolddev/orline/internal/transcript"
	"github.com/theirongolddev/orline/internal/tui"
	"github.com/theirongolddev/orline/internal/tui/theme"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live cost view for one session",
	Long: `Reconciles the session whenever its transcript changes (and at the
configured interval), showing the same line the statusline would print.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchSession    string
	watchTranscript string
)

func init() {
	watchCmd.Flags().StringVarP(&watchSession, "session", "s", "", "Session ID")
	watchCmd.Flags().StringVarP(&watchTranscript, "transcript", "t", "", "Path to the session transcript (JSONL)")
	_ = watchCmd.MarkFlagRequired("session")
	_ = watchCmd.MarkFlagRequired("transcript")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, done, err := loadConfig()
	defer done()
	if err != nil {
		return err
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		return fmt.Errorf("%w (set ANTHROPIC_AUTH_TOKEN, ANTHROPIC_API_KEY, or run `orline setup`)", err)
	}

	engine, closeEngine := newEngine(cfg, apiKey)
	defer closeEngine()

	w := transcript.NewWatcher(watchTranscript, cfg.WatchInterval())
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching transcript: %w", err)
	}
	defer w.Stop()

	theme.SetActive(cfg.Display.Theme)
	// Force TrueColor so theme colors render regardless of terminal detection.
	lipgloss.SetColorProfile(termenv.TrueColor)

	model := tui.NewWatch(tui.WatchOptions{
		SessionID:      watchSession,
		TranscriptPath: watchTranscript,
		Reconcile: func(ctx context.Context) (accrue.Summary, error) {
			return engine.Reconcile(ctx, watchSession, watchTranscript)
		},
		Changes:  w.Changes(),
		Interval: cfg.WatchInterval(),
		Color:    cfg.Display.Color,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			log.Debug().Msg("watch interrupted")
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
