package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/orline/internal/config"
	"github.com/theirongolddev/orline/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	// A broken config file is replaced, so start from whatever parsed.
	cfg, done, err := loadConfig()
	defer done()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "  Warning: %v (starting from defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	hasEnvKey := false
	for _, name := range config.CredentialEnvVars {
		if _, ok := os.LookupEnv(name); ok {
			hasEnvKey = true
		}
	}

	vals := tui.NewSetupValues(cfg)
	if err := tui.NewSetupForm(vals, hasEnvKey).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	if err := config.SaveTo(tui.ApplySetup(cfg, vals), flagConfig); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Saved to %s\n", flagConfig)
	fmt.Fprintln(out, "  Run `orline setup` anytime to reconfigure.")
	fmt.Fprintln(out)
	return nil
}
