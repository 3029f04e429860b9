// Package capture runs one clipboard capture: read, classify, format,
// append, and signal the outcome.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"go.klb.dev/notd/internal/classify"
	"go.klb.dev/notd/internal/clip"
	"go.klb.dev/notd/internal/config"
	"go.klb.dev/notd/internal/feedback"
	"go.klb.dev/notd/internal/record"
)

// ErrEmptyClipboard is returned when there is no usable text to capture.
// The clipboard being empty, locked, or non-text all land here.
var ErrEmptyClipboard = errors.New("clipboard is empty")

// Appender persists a record and reports the file it went to.
type Appender interface {
	Append(rec record.Record) (string, error)
}

// Result describes a completed capture.
type Result struct {
	ID   string
	Kind record.Kind
	Path string
	Size int // runes captured
}

// Operation is one configured capture pipeline. It holds no per-capture
// state and is safe to run from many goroutines at once; overlapping runs
// are independent and each writes its own entry.
type Operation struct {
	backend  clip.Backend
	writer   Appender
	emitter  feedback.Emitter
	maxChars int
	classify bool
	now      func() time.Time
}

// New builds an Operation for cfg.
func New(cfg *config.Config, backend clip.Backend, w Appender, e feedback.Emitter) *Operation {
	if e == nil {
		e = feedback.Silent{}
	}
	return &Operation{
		backend:  backend,
		writer:   w,
		emitter:  e,
		maxChars: cfg.MaxClipChars,
		classify: cfg.ClassifyEnabled(),
		now:      time.Now,
	}
}

// Run performs one capture. Every failure is local to this run: it is
// reported through the failure cue and the returned error, never retried.
func (o *Operation) Run() (Result, error) {
	res := Result{ID: ulid.Make().String()}
	log := slog.With("capture", res.ID)

	text := clip.ReadText(o.backend, o.maxChars)
	if strings.TrimSpace(text) == "" {
		log.Info("nothing to capture")
		o.emitter.Emit(false)
		return res, ErrEmptyClipboard
	}

	rec := record.Record{
		Text: text,
		Kind: classify.KindFor(text, o.classify),
		Time: o.now(),
	}
	res.Kind = rec.Kind
	res.Size = len([]rune(text))

	path, err := o.writer.Append(rec)
	res.Path = path
	if err != nil {
		log.Error("capture write failed", "kind", rec.Kind, "path", path, "err", err)
		o.emitter.Emit(false)
		return res, fmt.Errorf("capture %s: %w", res.ID, err)
	}

	log.Info("captured", "kind", rec.Kind, "path", path, "chars", res.Size)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("capture preview", "preview", preview(text))
	}
	o.emitter.Emit(true)
	return res, nil
}

// preview returns the first line of text, cut to 120 runes.
func preview(text string) string {
	line, _, more := strings.Cut(strings.TrimSpace(text), "\n")
	if cut := clip.Truncate(line, 120); cut != line || more {
		return cut + "…"
	}
	return line
}
