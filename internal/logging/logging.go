// Package logging configures the process-wide zerolog logger.
//
// Stdout belongs to the statusline, so logs always go to a file (or nowhere).
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar overrides the configured log level when set.
const LevelEnvVar = "ORLINE_LOG_LEVEL"

// Setup points the global logger at path with the given level and returns a
// closer for the underlying file. When the file cannot be opened, logs are discarded.
func Setup(path, level string) io.Closer {
	if env := os.Getenv(LevelEnvVar); env != "" {
		level = env
	}

	out, closer := openLogFile(path)
	log.Logger = New(out, level)
	return closer
}

// New builds a logger writing JSON lines to w at the given level.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to warn.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openLogFile(path string) (io.Writer, io.Closer) {
	if path == "" {
		return io.Discard, nopCloser{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return io.Discard, nopCloser{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // configured log path
	if err != nil {
		return io.Discard, nopCloser{}
	}
	return f, f
}
