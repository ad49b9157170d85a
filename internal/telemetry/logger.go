// Package telemetry builds the logger and tracer used by the command line
// tools.
package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LevelEnv is consulted when no log level is given explicitly.
const LevelEnv = "LOG_LEVEL"

// ParseLevel maps a level name to a zerolog level. An empty name falls back
// to $LOG_LEVEL; unknown names mean info.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		name = os.Getenv(LevelEnv)
	}
	switch strings.ToLower(name) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns a logger writing to w at the named level. Console
// loggers print human-readable lines, the others JSON.
func NewLogger(w io.Writer, level string, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(level))
}
