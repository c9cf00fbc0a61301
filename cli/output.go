package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// plainTextHandler is a simple slog handler that writes plain text without
// timestamps or log levels. Command results go through it; diagnostics go
// through the structured logger.
type plainTextHandler struct {
	w io.Writer
}

func (*plainTextHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *plainTextHandler) Handle(_ context.Context, r slog.Record) error {
	_, err := fmt.Fprintln(h.w, r.Message)
	return err
}

func (h *plainTextHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *plainTextHandler) WithGroup(_ string) slog.Handler {
	return h
}

func newPrinter(w io.Writer) *slog.Logger {
	return slog.New(&plainTextHandler{w: w})
}

// newLogger builds the diagnostic logger for level, one of
// debug|info|warn|error.
func newLogger(w io.Writer, level string, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
