package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/orline/internal/accrue"
	"github.com/theirongolddev/orline/internal/cli"
	"github.com/theirongolddev/orline/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state SESSION_ID",
	Short: "Show the stored totals for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runState,
}

var stateJSON bool

func init() {
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "Print the record as JSON")
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, done, err := loadConfig()
	defer done()
	if err != nil {
		return err
	}

	sessionID := args[0]
	store := state.NewStore(cfg.StateDir())
	path := store.Path(sessionID)
	rec := store.Load(sessionID)
	out := cmd.OutOrStdout()

	if stateJSON {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	status := "stored"
	if _, err := os.Stat(path); err != nil {
		status = "not found (zero record)"
	}

	model := rec.LastModel
	if short := accrue.ShortModelName(model); short != model {
		model = fmt.Sprintf("%s (%s)", short, model)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("SESSION STATE"))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderKV([][2]string{
		{"Session", sessionID},
		{"File", path},
		{"Status", status},
		{"Total cost", cli.FormatExactCost(rec.TotalCost)},
		{"Cache discount", cli.FormatExactCost(rec.TotalCacheDiscount)},
		{"Generations", cli.FormatNumber(int64(len(rec.SeenIDs)))},
		{"Last provider", orDash(rec.LastProvider)},
		{"Last model", orDash(model)},
	}))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
