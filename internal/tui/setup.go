package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/orline/internal/config"
	"github.com/theirongolddev/orline/internal/logging"
	"github.com/theirongolddev/orline/internal/tui/theme"
)

var errInvalidBaseURL = errors.New("base URL must start with http:// or https://")

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	APIKey     string
	BaseURL    string
	Color      bool
	Theme      string
	History    bool
	LogLevel   string
	KeepOldKey bool
}

// NewSetupValues seeds the form from an existing config.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		BaseURL:    cfg.OpenRouter.BaseURL,
		Color:      cfg.Display.Color,
		Theme:      theme.ByName(cfg.Display.Theme).Name,
		History:    cfg.History.Enabled,
		LogLevel:   logging.ParseLevel(cfg.Log.Level).String(),
		KeepOldKey: cfg.OpenRouter.APIKey != "",
	}
}

// NewSetupForm builds the interactive setup form writing into vals.
func NewSetupForm(vals *SetupValues, hasEnvKey bool) *huh.Form {
	keyDesc := "Used when ANTHROPIC_AUTH_TOKEN and ANTHROPIC_API_KEY are unset. Leave empty to skip."
	if hasEnvKey {
		keyDesc = "A key is already set in the environment and takes precedence. Leave empty to skip."
	}
	if vals.KeepOldKey {
		keyDesc += " Empty keeps the saved key."
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenRouter API key").
				Description(keyDesc).
				EchoMode(huh.EchoModePassword).
				Value(&vals.APIKey),
			huh.NewInput().
				Title("API base URL").
				Value(&vals.BaseURL).
				Validate(validateBaseURL),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Color status markers?").
				Value(&vals.Color),
			huh.NewSelect[string]().
				Title("Watch view theme").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewConfirm().
				Title("Keep a history of counted generations?").
				Value(&vals.History),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&vals.LogLevel),
		),
	).WithTheme(huh.ThemeCatppuccin())
}

// ApplySetup merges form answers into cfg.
func ApplySetup(cfg config.Config, vals *SetupValues) config.Config {
	if key := strings.TrimSpace(vals.APIKey); key != "" {
		cfg.OpenRouter.APIKey = key
	}
	if u := strings.TrimRight(strings.TrimSpace(vals.BaseURL), "/"); u != "" {
		cfg.OpenRouter.BaseURL = u
	} else {
		cfg.OpenRouter.BaseURL = config.DefaultBaseURL
	}
	cfg.Display.Color = vals.Color
	cfg.Display.Theme = theme.ByName(vals.Theme).Name
	cfg.History.Enabled = vals.History
	cfg.Log.Level = vals.LogLevel
	return cfg
}

func validateBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return nil
	}
	return errInvalidBaseURL
}
