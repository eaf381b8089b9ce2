package config

import (
	"errors"
	"os"
	"strings"
)

// CredentialEnvVars are consulted in order; the first one present wins.
var CredentialEnvVars = []string{"ANTHROPIC_AUTH_TOKEN", "ANTHROPIC_API_KEY"}

// ErrNoCredential means no OpenRouter key was found in the environment or config.
var ErrNoCredential = errors.New("config: no OpenRouter API key configured")

// GetAPIKey returns the OpenRouter key from env vars or config, in that order.
// A variable that is present but empty still wins over later sources, which
// mirrors how the statusline host passes credentials through.
func GetAPIKey(cfg Config) (string, error) {
	for _, name := range CredentialEnvVars {
		if v, ok := os.LookupEnv(name); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				return "", ErrNoCredential
			}
			return v, nil
		}
	}
	if key := strings.TrimSpace(cfg.OpenRouter.APIKey); key != "" {
		return key, nil
	}
	return "", ErrNoCredential
}

// MaskKey returns a display-safe form of an API key.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
