// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a colored tint logger for development (or an empty env) and a
// JSON logger otherwise.
func New(env string, w io.Writer) *slog.Logger {
	if IsDevelopment(env) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// IsDevelopment reports whether env selects development behaviour.
func IsDevelopment(env string) bool {
	return env == "" || env == "development"
}
