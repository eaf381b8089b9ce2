package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/orline/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, done, err := loadConfig()
	defer done()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Config file: %s\n", flagConfig)
	if _, err := os.Stat(flagConfig); err == nil {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [OpenRouter]")
	fmt.Fprintf(out, "    Base URL:        %s\n", cfg.OpenRouter.BaseURL)
	fmt.Fprintf(out, "    Request timeout: %s\n", cfg.RequestTimeout())
	if key, err := config.GetAPIKey(cfg); err != nil {
		fmt.Fprintln(out, "    API key:         not configured")
	} else {
		fmt.Fprintf(out, "    API key:         %s (%s)\n", config.MaskKey(key), keySource(cfg))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [State]")
	fmt.Fprintf(out, "    Directory: %s\n", cfg.StateDir())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [History]")
	fmt.Fprintf(out, "    Enabled: %v\n", cfg.History.Enabled)
	fmt.Fprintf(out, "    Path:    %s\n", cfg.HistoryPath())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Display]")
	fmt.Fprintf(out, "    Color: %v\n", cfg.Display.Color)
	fmt.Fprintf(out, "    Theme: %s\n", cfg.Display.Theme)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Log]")
	fmt.Fprintf(out, "    Level: %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "    File:  %s\n", cfg.LogFile())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Watch]")
	fmt.Fprintf(out, "    Interval: %s\n", cfg.WatchInterval())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Run `orline setup` to reconfigure.")
	return nil
}

// keySource names where GetAPIKey found the key.
func keySource(cfg config.Config) string {
	for _, name := range config.CredentialEnvVars {
		if _, ok := os.LookupEnv(name); ok {
			return "$" + name
		}
	}
	if cfg.OpenRouter.APIKey != "" {
		return "config"
	}
	return "unknown"
}
