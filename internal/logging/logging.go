// Package logging builds the service's zerolog logger and a small wrapper
// that carries a fixed context map alongside it.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level   string
	Format  string // json or console
	Service string
	Output  io.Writer
}

// New returns the root logger. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	l := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Service != "" {
		l = l.Str("service", opts.Service)
	}
	return l.Logger()
}

// Fields is a set of structured log attributes.
type Fields map[string]any

// Logger pairs a zerolog logger with a static context. Every entry carries
// the static context merged with the fields given at the call site; on a
// key collision the call-site value wins.
type Logger struct {
	zl     zerolog.Logger
	static Fields
}

// NewLogger wraps zl with the given static context.
func NewLogger(zl zerolog.Logger, static Fields) Logger {
	return Logger{zl: zl, static: merge(nil, static)}
}

// Nop discards everything.
func Nop() Logger { return Logger{zl: zerolog.Nop()} }

// With derives a logger whose static context is extended by fields.
// Fields passed here override existing static keys.
func (l Logger) With(fields Fields) Logger {
	return Logger{zl: l.zl, static: merge(l.static, fields)}
}

// Zerolog exposes the underlying logger, e.g. to put it in a context.
func (l Logger) Zerolog() zerolog.Logger {
	return l.zl.With().Fields(map[string]any(l.static)).Logger()
}

func (l Logger) Debug(msg string, fields Fields) { l.emit(l.zl.Debug(), msg, fields) }
func (l Logger) Info(msg string, fields Fields)  { l.emit(l.zl.Info(), msg, fields) }
func (l Logger) Warn(msg string, fields Fields)  { l.emit(l.zl.Warn(), msg, fields) }

func (l Logger) Error(err error, msg string, fields Fields) {
	l.emit(l.zl.Error().Err(err), msg, fields)
}

func (l Logger) emit(ev *zerolog.Event, msg string, fields Fields) {
	if ev == nil {
		return
	}
	ev.Fields(map[string]any(merge(l.static, fields))).Msg(msg)
}

func merge(base, over Fields) Fields {
	out := make(Fields, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
