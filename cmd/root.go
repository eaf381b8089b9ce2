// Package cmd implements the orline CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/theirongolddev/orline/internal/accrue"
	"github.com/theirongolddev/orline/internal/config"
	"github.com/theirongolddev/orline/internal/history"
	"github.com/theirongolddev/orline/internal/logging"
	"github.com/theirongolddev/orline/internal/openrouter"
	"github.com/theirongolddev/orline/internal/state"
	"github.com/theirongolddev/orline/internal/statusline"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "orline",
	Short: "OpenRouter cost statusline for Claude Code",
	Long: `Reads the statusline JSON from stdin, counts every new OpenRouter generation
in the session transcript exactly once, and prints the session cost and
remaining credit on a single line.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStatusline,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "  Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", config.Path(), "Config file")
}

// loadConfig loads the .env file and config, then points the global logger
// at the configured log file. The returned func closes the log file.
func loadConfig() (config.Config, func(), error) {
	envErr := config.LoadEnvFile()

	cfg, err := config.LoadFrom(flagConfig)
	closer := logging.Setup(cfg.LogFile(), cfg.Log.Level)
	done := func() { _ = closer.Close() }

	if envErr != nil {
		log.Warn().Err(envErr).Msg("ignoring .env file")
	}
	return cfg, done, err
}

// statuslineInput is the JSON document the host writes to stdin.
type statuslineInput struct {
	SessionID      string
	TranscriptPath string
}

var errInvalidInput = errors.New("invalid statusline input")

func parseInput(r io.Reader) (statuslineInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return statuslineInput{}, fmt.Errorf("reading stdin: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return statuslineInput{}, errInvalidInput
	}
	fields := gjson.GetManyBytes(data, "session_id", "transcript_path")
	if fields[0].Type != gjson.String || fields[1].Type != gjson.String {
		return statuslineInput{}, errInvalidInput
	}
	return statuslineInput{
		SessionID:      fields[0].String(),
		TranscriptPath: fields[1].String(),
	}, nil
}

// newEngine wires the billing client, state store and optional history ledger.
// The returned func closes the ledger.
func newEngine(cfg config.Config, apiKey string) (*accrue.Engine, func()) {
	client := openrouter.NewClient(apiKey,
		openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
		openrouter.WithTimeout(cfg.RequestTimeout()),
	)

	var opts []accrue.Option
	done := func() {}
	if cfg.History.Enabled {
		ledger, err := history.Open(cfg.HistoryPath())
		if err != nil {
			// History is an audit trail only; the statusline works without it.
			log.Warn().Err(err).Str("path", cfg.HistoryPath()).Msg("history disabled for this run")
		} else {
			opts = append(opts, accrue.WithRecorder(ledger))
			done = func() { _ = ledger.Close() }
		}
	}

	return accrue.New(state.NewStore(cfg.StateDir()), client, opts...), done
}

func runStatusline(cmd *cobra.Command, _ []string) error {
	cfg, done, err := loadConfig()
	defer done()

	var line string
	if err != nil {
		line = statusline.Error(err)
	} else {
		line = renderStatusline(cmd.Context(), cmd.InOrStdin(), cfg)
	}

	// The host shows whatever we print; a non-zero exit would blank it.
	_, _ = fmt.Fprint(cmd.OutOrStdout(), line)
	return nil
}

// renderStatusline produces the single output line for one statusline
// invocation. It never fails: every problem becomes a diagnostic line.
func renderStatusline(ctx context.Context, in io.Reader, cfg config.Config) (line string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("statusline panicked")
			if err, ok := r.(error); ok {
				line = statusline.Error(err)
				return
			}
			line = statusline.Error(fmt.Errorf("%v", r))
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		return statusline.MsgMissingKey
	}

	input, err := parseInput(in)
	if err != nil {
		log.Debug().Err(err).Msg("rejecting statusline input")
		return statusline.MsgInvalidInput
	}

	engine, closeEngine := newEngine(cfg, apiKey)
	defer closeEngine()

	sum, err := engine.Reconcile(ctx, input.SessionID, input.TranscriptPath)
	if err != nil {
		log.Error().Err(err).Str("session", input.SessionID).Msg("reconcile failed")
		return statusline.Error(err)
	}
	return statusline.NewFormatter(cfg.Display.Color).Render(sum)
}
