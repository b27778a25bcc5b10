package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/corey/xtags/internal/config"
)

// NewLogger returns a logger writing cfg's log format at cfg's log level to
// w. An unparsable level logs at info. The global logger is left alone.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
