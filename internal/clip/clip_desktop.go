//go:build darwin || linux

package clip

import (
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

type desktopBackend struct{}

// New returns the golang.design clipboard backend, or a headless no-op
// backend if the display environment is unavailable (e.g. a headless server
// without X11). clipboard.Init is called here rather than in init() so that
// sub-commands which never read the clipboard don't trigger the warning.
func New() Backend {
	initOnce.Do(func() { initErr = clipboard.Init() })
	if initErr != nil {
		slog.Warn("clipboard unavailable, running headless", "err", initErr)
		return headlessBackend{}
	}
	return desktopBackend{}
}

func (desktopBackend) Name() string { return "golang.design clipboard" }

func (desktopBackend) ReadText() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}
