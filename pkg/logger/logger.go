// Package logger configures the process-wide zerolog logger. Code logs
// through github.com/rs/zerolog/log once New has run.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the logger options.
type Config struct {
	Env   string // development -> human readable console; anything else -> JSON
	Level string // trace, debug, info, warn, error, disabled
	Out   io.Writer
}

// New builds the logger described by cfg, installs it as the global
// zerolog logger and returns it.
func New(cfg Config) zerolog.Logger {
	w := cfg.Out
	if w == nil {
		w = os.Stdout
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	log.Logger = zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
