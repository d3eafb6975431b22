package cli

import (
	"io"
	"log/slog"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// NewLogger returns a slog logger backed by a zerolog console writer on w.
// Warnings and errors are shown by default; verbose lowers the level to
// debug so parser [OK]/[KO] lines and builder decisions become visible.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		With().Timestamp().Logger()
	return slog.New(slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler())
}
