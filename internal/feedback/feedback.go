// Package feedback plays the success/failure audio cue after a capture.
// Playback is best-effort: it never blocks past issuing the request and
// never reports failure to the caller.
package feedback

import (
	"log/slog"
	"os"

	"go.klb.dev/notd/internal/config"
)

// Emitter signals the outcome of a capture.
type Emitter interface {
	Emit(success bool)
}

// Sound plays configured sound files through the platform player.
type Sound struct {
	enabled bool
	success string
	fail    string
	play    func(path string) error
}

// New returns a Sound emitter for cfg.
func New(cfg *config.Config) *Sound {
	return &Sound{
		enabled: cfg.SoundsEnabled,
		success: cfg.SuccessSound,
		fail:    cfg.FailSound,
		play:    playAsync,
	}
}

// Emit requests the success or failure cue.
func (s *Sound) Emit(success bool) {
	if s == nil || !s.enabled {
		return
	}
	path := s.fail
	if success {
		path = s.success
	}
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		slog.Debug("sound file unavailable", "path", path)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("sound playback panicked", "path", path, "panic", r)
		}
	}()
	if err := s.play(path); err != nil {
		slog.Debug("sound playback failed", "path", path, "err", err)
	}
}

// Silent is an Emitter that does nothing.
type Silent struct{}

func (Silent) Emit(bool) {}
