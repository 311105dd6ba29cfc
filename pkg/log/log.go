// Package log provides a thin, package-scoped wrapper around zerolog so that
// every component logs through the same sink with a consistent "component"
// field.
package log

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	output   atomic.Pointer[io.Writer]
	debugSet atomic.Bool
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.Store(&w)
}

// SetPretty switches the global output between a human-friendly console
// writer (default) and raw JSON Lines, suitable for log aggregation. It
// applies to loggers created by NewLogger after the call; loggers created
// earlier, including package-level ones, keep the writer they were built
// with.
func SetPretty(pretty bool) {
	var w io.Writer
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	} else {
		w = os.Stderr
	}
	output.Store(&w)
}

// SetDebug raises or lowers the global minimum log level.
func SetDebug(enabled bool) {
	debugSet.Store(enabled)
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Logger is a named zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a Logger that stamps every event with a "component"
// field set to name.
func NewLogger(name string) Logger {
	w := *output.Load()
	return Logger{zerolog.New(w).With().Timestamp().Str("component", name).Logger()}
}
