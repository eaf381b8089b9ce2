package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/orline/internal/accrue"
	"github.com/theirongolddev/orline/internal/cli"
	"github.com/theirongolddev/orline/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Counted generations per session",
	Long: `Without --session, lists the most recently active sessions in the ledger.
With --session, lists the generations counted for that session.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var (
	historySession string
	historyLimit   int
)

func init() {
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "Show generations for one session")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of rows to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, done, err := loadConfig()
	defer done()
	if err != nil {
		return err
	}

	ledger, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()

	if historySession != "" {
		return printSessionHistory(cmd, ledger)
	}
	return printSessions(cmd, ledger)
}

func printSessions(cmd *cobra.Command, ledger *history.Ledger) error {
	sessions, err := ledger.Sessions(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "\n  No generations recorded yet.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(sessions)+2)
	var total float64
	var count int
	for _, s := range sessions {
		rows = append(rows, []string{
			cli.Truncate(s.SessionID, 18),
			cli.FormatNumber(int64(s.Generations)),
			cli.FormatCost(s.TotalCost),
			cli.FormatCost(s.CacheDiscount),
			cli.Truncate(accrue.ShortModelName(s.LastModel), 22),
			cli.FormatAge(s.LastSeen, now),
		})
		total += s.TotalCost
		count += s.Generations
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("SESSIONS  (showing %d)", len(sessions))))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Session", "Gens", "Cost", "Saved", "Last Model", "Last Seen"},
		Rows:    rows,
	}))
	fmt.Fprintln(out, cli.RenderTotal("Shown sessions:", total, count))
	return nil
}

func printSessionHistory(cmd *cobra.Command, ledger *history.Ledger) error {
	ctx := cmd.Context()
	entries, err := ledger.Generations(ctx, historySession, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "\n  No generations recorded for %s.\n", historySession)
		return nil
	}
	all, err := ledger.Count(ctx, historySession)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(entries))
	costs := make([]float64, 0, len(entries))
	var total float64
	for _, e := range entries {
		rows = append(rows, []string{
			e.RecordedAt.Local().Format("Jan 02 15:04:05"),
			cli.Truncate(e.GenerationID, 24),
			cli.Truncate(accrue.ShortModelName(e.Model), 22),
			cli.Truncate(e.Provider, 12),
			cli.FormatExactCost(e.TotalCost),
			cli.FormatExactCost(e.CacheDiscount),
		})
		costs = append(costs, e.TotalCost)
		total += e.TotalCost
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("SESSION %s  (%d of %d)", cli.Truncate(historySession, 24), len(entries), all)))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Recorded", "Generation", "Model", "Provider", "Cost", "Discount"},
		Rows:    rows,
	}))
	fmt.Fprintln(out, cli.RenderTotal("Shown:", total, len(entries)))
	if len(costs) > 1 {
		fmt.Fprintf(out, "  %s %s\n", cli.RenderMuted("Cost per generation:"), cli.RenderSparkline(costs))
	}
	return nil
}
