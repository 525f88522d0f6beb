// Package logging builds the zerolog loggers used on the host side.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogKey names the structured fields shared by every host component.
var LogKey = struct {
	Module string
	Line   string
	Port   string
	Policy string
}{
	Module: "module",
	Line:   "line",
	Port:   "port",
	Policy: "policy",
}

// New returns a root logger writing to w. With pretty set the output is the
// human readable console format.
func New(w io.Writer, level string, pretty bool) (*zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &l, nil
}

// Module returns a child logger tagged with the component name.
func Module(l *zerolog.Logger, name string) *zerolog.Logger {
	return Ptr(l.With().Str(LogKey.Module, name).Logger())
}

func Ptr[T any](v T) *T {
	return &v
}

// Lines adapts a zerolog logger to a line sink. Each line becomes one event
// at the configured level.
type Lines struct {
	l     *zerolog.Logger
	level zerolog.Level
}

func NewLines(l *zerolog.Logger, level zerolog.Level) *Lines {
	return &Lines{l: l, level: level}
}

func (s *Lines) WriteLineString(line string) {
	if s == nil || s.l == nil {
		return
	}
	s.l.WithLevel(s.level).Msg(line)
}

func (s *Lines) WriteLineBytes(b []byte) {
	s.WriteLineString(string(b))
}
