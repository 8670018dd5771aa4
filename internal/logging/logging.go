// Package logging builds the zerolog loggers used by the CLI and the MCP
// server. Logs always go to stderr; stdout carries protocol traffic in
// serve mode and prompts in run mode.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LevelEnv names the environment variable that overrides the log level.
const LevelEnv = "LEAF_AREA_LOG_LEVEL"

// New returns a timestamped JSON logger writing to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Console returns a human-readable logger writing to w.
func Console(w io.Writer, level zerolog.Level) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}, level)
}

// Component returns a child of l tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// zerolog level. The empty string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// ResolveLevel picks the log level: LevelEnv when set, otherwise configured.
func ResolveLevel(configured string) (zerolog.Level, error) {
	if env, ok := os.LookupEnv(LevelEnv); ok && env != "" {
		return ParseLevel(env)
	}
	return ParseLevel(configured)
}

// Setup builds the process logger on stderr. A JSON logger is used when json
// is true, otherwise console output.
func Setup(configured string, json bool) (zerolog.Logger, error) {
	level, err := ResolveLevel(configured)
	if err != nil {
		return zerolog.Nop(), err
	}
	if json {
		return New(os.Stderr, level), nil
	}
	return Console(os.Stderr, level), nil
}
