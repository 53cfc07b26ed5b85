package config

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger returns a logger writing to f. LogFormatAuto picks text on a
// terminal and JSON otherwise.
func NewLogger(f *os.File, level slog.Level, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatAuto {
		format = LogFormatJSON
		if term.IsTerminal(int(f.Fd())) {
			format = LogFormatText
		}
	}
	if format == LogFormatText {
		return slog.New(slog.NewTextHandler(f, opts))
	}
	return slog.New(slog.NewJSONHandler(f, opts))
}
