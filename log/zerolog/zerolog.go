// Package zerolog adapts a zerolog.Logger to bebopffi.Logger.
package zerolog

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/bebopffi"
)

var _ bebopffi.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "bebop").Logger()}
}

// NewConsole writes human-readable lines to w, for CLIs.
func NewConsole(w io.Writer, level zerolog.Level) Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return New(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

func (z Logger) Debug(msg string, f bebopffi.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f bebopffi.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f bebopffi.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f bebopffi.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }
