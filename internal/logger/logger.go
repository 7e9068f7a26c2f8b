// Package logger wraps zerolog behind the small leveled API the rest of the
// code takes as an explicit dependency. There is no package-level default;
// commands build one logger and hand it down. All methods are safe on a nil
// receiver, so optional logging needs no guards at call sites.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Logger at creation time.
type Options struct {
	// Level names the minimum level to write (debug, info, warn, error).
	// Empty means info.
	Level string
	// HumanReadable switches from JSON lines to the console format.
	HumanReadable bool
	// Writer receives the output. Defaults to os.Stderr so command output
	// on stdout stays machine-readable.
	Writer io.Writer
}

// Logger is the leveled logger handed to components explicitly.
type Logger struct {
	base zerolog.Logger
}

// New builds a Logger from Options.
func New(opts Options) (*Logger, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	if opts.HumanReadable {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	base := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{base: base}, nil
}

// WithFields returns a derived logger that stamps every entry with fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.With().Fields(fields).Logger()}
}

// WithComponent returns a derived logger tagged with a component name.
// Plugins and phases use it so every entry names its source.
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithFields(map[string]any{"component": name})
}

// at opens an event at the given level. A nil Logger yields a nil event, and
// zerolog events no-op on nil, so the leveled methods below need no guards.
func (l *Logger) at(level zerolog.Level) *zerolog.Event {
	if l == nil {
		return nil
	}
	return l.base.WithLevel(level)
}

// Info writes an informational entry.
func (l *Logger) Info(msg string) { l.at(zerolog.InfoLevel).Msg(msg) }

// Infof writes a formatted informational entry.
func (l *Logger) Infof(format string, args ...any) { l.at(zerolog.InfoLevel).Msgf(format, args...) }

// Debug writes a debug entry when the level allows it.
func (l *Logger) Debug(msg string) { l.at(zerolog.DebugLevel).Msg(msg) }

// Debugf writes a formatted debug entry when the level allows it.
func (l *Logger) Debugf(format string, args ...any) { l.at(zerolog.DebugLevel).Msgf(format, args...) }

// Warn writes a warning entry.
func (l *Logger) Warn(msg string) { l.at(zerolog.WarnLevel).Msg(msg) }

// Warnf writes a formatted warning entry.
func (l *Logger) Warnf(format string, args ...any) { l.at(zerolog.WarnLevel).Msgf(format, args...) }

// Error writes an error entry, attaching err when non-nil.
func (l *Logger) Error(err error, msg string) { l.at(zerolog.ErrorLevel).Err(err).Msg(msg) }
