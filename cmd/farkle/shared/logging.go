package shared

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a human readable logger on stderr
func SetupLogger(debug bool) *log.Logger {
	return NewLogger(os.Stderr, debug, false)
}

// SetupStructuredLogger configures a JSON logger on stderr
func SetupStructuredLogger(debug bool) *log.Logger {
	return NewLogger(os.Stderr, debug, true)
}

// NewLogger builds the root logger writing to w.
func NewLogger(w io.Writer, debug, structured bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}
	if structured {
		opts.Formatter = log.JSONFormatter
		opts.TimeFormat = time.RFC3339Nano
	}
	return log.NewWithOptions(w, opts)
}
