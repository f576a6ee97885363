package utils

import (
	"io"
	"log/slog"
)

const TimestampFormat = "2006-01-02 15:04:05.000"

// NewLogger returns a text logger whose records carry a millisecond timestamp.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(TimestampFormat))
			}
			return a
		},
	}))
}

// Discard is a logger for tests and callers that do not want output.
func Discard() *slog.Logger {
	return NewLogger(io.Discard, slog.LevelError)
}
