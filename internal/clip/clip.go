// Package clip reads text from the system clipboard. Build constraints
// select the backend:
//
//	clip_windows.go: Windows via the Win32 clipboard API (bounded open, no message pumping)
//	clip_desktop.go: macOS / Linux via golang.design/x/clipboard
//	clip_other.go: headless stub
package clip

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// ReadTimeout bounds a single backend read as seen by ReadText.
const ReadTimeout = 2 * time.Second

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the clipboard text. It returns "", nil when the
	// clipboard is empty or holds no text. Implementations must release the
	// clipboard on every return path and must not pump window messages.
	ReadText() (string, error)
}

// ReadText reads at most maxChars runes of clipboard text from b. It never
// fails: an empty, non-text, locked, or unresponsive clipboard yields "".
// Safe to call from any goroutine.
func ReadText(b Backend, maxChars int) string {
	return ReadTextTimeout(b, maxChars, ReadTimeout)
}

// ReadTextTimeout is ReadText with an explicit bound on the backend call.
func ReadTextTimeout(b Backend, maxChars int, timeout time.Duration) string {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("clipboard backend panic: %v", r)}
			}
		}()
		text, err := b.ReadText()
		ch <- result{text: text, err: err}
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	var res result
	select {
	case res = <-ch:
	case <-t.C:
		slog.Warn("clipboard read timed out", "backend", b.Name(), "timeout", timeout)
		return ""
	}
	if res.err != nil {
		slog.Debug("clipboard read failed", "backend", b.Name(), "err", res.err)
		return ""
	}
	return Truncate(res.text, maxChars)
}

// Truncate returns the first n runes of s, or s unchanged when it is
// shorter.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
