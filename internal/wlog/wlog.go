// Package wlog builds the *slog.Logger used by the nwpwifi command. Records
// flow through logr into zerolog, which writes colored console output on a
// terminal and JSON lines elsewhere, optionally to a rotated file.
package wlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is more verbose than debug. It logs bus-level radio activity.
const LevelTrace slog.Level = slog.LevelDebug - 1

type Config struct {
	Level slog.Level
	// File receives JSON logs with rotation. Ignored if empty.
	File string
	// Out defaults to os.Stderr. Console formatting is used when Out is a terminal.
	Out io.Writer
	// Name is the root logger name.
	Name string
}

// New returns the logger and a closer for the rotated log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out, closer = lj, lj
	} else if IsTerminal(out) {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor(),
			TimeFormat: time.RFC3339,
		}
	}

	level := zerologLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	var lr logr.Logger = zerologr.New(&zl)
	if cfg.Name != "" {
		lr = lr.WithName(cfg.Name)
	}
	return slog.New(logr.ToSlogHandler(lr)), closer
}

// zerologLevel maps a slog level onto the zerolog level reached through
// logr's verbosity: slog level -n becomes V(n), and zerologr writes V(n) at
// zerolog level 1-n.
func zerologLevel(l slog.Level) zerolog.Level {
	if l >= slog.LevelError {
		return zerolog.ErrorLevel
	}
	if l >= slog.LevelInfo {
		return zerolog.InfoLevel
	}
	return zerolog.Level(1 + int(l))
}

// ParseLevel parses trace, debug, info, warn or error, case insensitive.
func ParseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return LevelTrace, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}
	return l, nil
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
