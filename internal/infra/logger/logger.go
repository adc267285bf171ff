package logger

import (
	"io"
	"log/slog"
	"os"
)

// New — JSON в stdout; в dev пишем debug и читаемым текстом.
func New(env string) *slog.Logger {
	return newWithWriter(env, os.Stdout)
}

func newWithWriter(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if env == "dev" {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	log := slog.New(h).With("service", "catalog-agent")
	slog.SetDefault(log)
	return log
}
