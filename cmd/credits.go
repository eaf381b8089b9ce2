package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/orline/internal/cli"
	"github.com/theirongolddev/orline/internal/config"
	"github.com/theirongolddev/orline/internal/openrouter"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show OpenRouter account credit and usage",
	Args:  cobra.NoArgs,
	RunE:  runCredits,
}

func init() {
	rootCmd.AddCommand(creditsCmd)
}

func runCredits(cmd *cobra.Command, _ []string) error {
	cfg, done, err := loadConfig()
	defer done()
	if err != nil {
		return err
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		return fmt.Errorf("%w (set ANTHROPIC_AUTH_TOKEN, ANTHROPIC_API_KEY, or run `orline setup`)", err)
	}

	client := openrouter.NewClient(apiKey,
		openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
		openrouter.WithTimeout(cfg.RequestTimeout()),
	)
	cr, err := client.FetchCredits(cmd.Context())
	switch {
	case errors.Is(err, openrouter.ErrUnauthorized):
		return errors.New("API key rejected by OpenRouter")
	case errors.Is(err, openrouter.ErrRateLimited):
		return errors.New("rate limited by OpenRouter, try again in a minute")
	case err != nil:
		return fmt.Errorf("fetching credits: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("OPENROUTER CREDITS"))
	fmt.Fprintln(out)

	rows := [][]string{
		{"Purchased", fmt.Sprintf("$%.2f", cr.TotalCredits)},
		{"Used", fmt.Sprintf("$%.2f", cr.TotalUsage)},
		{"Remaining", fmt.Sprintf("$%.2f", cr.Remaining())},
	}
	if cr.TotalCredits > 0 {
		pct := cr.TotalUsage / cr.TotalCredits
		rows = append(rows, []string{"Usage", cli.FormatPercent(pct) + " " + renderMiniBar(pct, 20)})
	}
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Credit", "Amount"},
		Rows:    rows,
	}))
	fmt.Fprintf(out, "  Fetched at %s\n\n", time.Now().Format("3:04:05 PM"))
	return nil
}

func renderMiniBar(pct float64, width int) string {
	pct = min(max(pct, 0), 1)
	filled := int(pct * float64(width))
	empty := width - filled

	color := cli.ColorGreen
	if pct >= 0.8 {
		color = cli.ColorRed
	} else if pct >= 0.5 {
		color = cli.ColorOrange
	}

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(cli.ColorTextDim).Render(strings.Repeat("░", empty))
}
