// Package logging builds the zerolog loggers used by both front ends.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// levelSplitWriter sends warn and above to errOut and everything else to out.
type levelSplitWriter struct {
	out    io.Writer
	errOut io.Writer
}

func (w levelSplitWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

func (w levelSplitWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l >= zerolog.WarnLevel && l != zerolog.NoLevel {
		return w.errOut.Write(p)
	}
	return w.out.Write(p)
}

// ParseLevel maps a level name to a zerolog level; unknown names mean info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a human-readable logger writing informational lines to out and
// warnings and errors to errOut.
func New(level string, out, errOut io.Writer) zerolog.Logger {
	w := levelSplitWriter{
		out:    console(out),
		errOut: console(errOut),
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewJSON returns a structured JSON logger, used by the service front end.
func NewJSON(level string, out, errOut io.Writer) zerolog.Logger {
	w := levelSplitWriter{out: out, errOut: errOut}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func console(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
}
