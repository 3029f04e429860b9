// Package logging configures the global slog logger for notd.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Options controls Setup.
type Options struct {
	Format Format
	Level  slog.Level
	// File, when set, receives a JSON copy of every record and is rotated
	// by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the global slog logger. Call once after flag/viper parsing.
// The returned closer flushes the log file, if any.
func Setup(o Options) io.Closer {
	h := NewHandler(os.Stderr, o.Format, o.Level)

	var closer io.Closer = nopCloser{}
	if o.File != "" {
		if err := os.MkdirAll(filepath.Dir(o.File), 0o755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   o.File,
				MaxSize:    orDefault(o.MaxSizeMB, 10),
				MaxBackups: orDefault(o.MaxBackups, 3),
				MaxAge:     orDefault(o.MaxAgeDays, 30),
				Compress:   true,
			}
			closer = lj
			h = slogmulti.Fanout(h, slog.NewJSONHandler(lj, &slog.HandlerOptions{Level: o.Level}))
		}
	}
	slog.SetDefault(slog.New(h))
	return closer
}

// NewHandler returns the console handler: tinter on a terminal (or when
// forced with FormatText), JSON otherwise.
func NewHandler(w io.Writer, format Format, level slog.Level) slog.Handler {
	if format == FormatText || (format == FormatAuto && IsTTY(w)) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
