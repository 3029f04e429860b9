// Package listener arms the global capture triggers (a registered hotkey and
// a low-level mouse hook) and runs the platform event loop that delivers
// them. Trigger handling always happens on a fresh goroutine so the hook
// callback returns within its latency budget.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/notd/internal/config"
)

var (
	// ErrNoTriggers is returned when both the hotkey and the mouse trigger
	// are disabled by configuration.
	ErrNoTriggers = errors.New("both mouse capture and hotkey are disabled")
	// ErrNotArmed is returned when every enabled trigger failed to install.
	ErrNotArmed = errors.New("no capture trigger could be installed")
	// ErrRunning is returned by Run on a listener that is already running.
	ErrRunning = errors.New("listener already running")
	// ErrUnsupported is returned on platforms without global input hooks.
	ErrUnsupported = errors.New("global input hooks are not supported on " + runtime.GOOS)
)

// State is the listener lifecycle state.
type State int32

const (
	Idle State = iota
	Armed
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case ShuttingDown:
		return "shutting-down"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Source identifies which mechanism fired.
type Source string

const (
	SourcePointer Source = "pointer"
	SourceHotkey  Source = "hotkey"
)

// Trigger is one observed input event. It causes exactly one handler call.
type Trigger struct {
	Source Source
	At     time.Time
}

// platform is the OS hook surface. Every method except stop is called on
// the goroutine running Run, which is locked to its OS thread.
type platform interface {
	// prepare binds the platform to the current thread.
	prepare() error
	registerHotkey(hk Hotkey) error
	unregisterHotkey() error
	// installPointerHook installs the hook; onDown must return quickly.
	installPointerHook(b Button, onDown func()) error
	uninstallPointerHook() error
	// loop dispatches events until stop is called (nil) or the event queue
	// fails (error).
	loop(onHotkey func()) error
	// stop asks a running or about-to-run loop to return. Safe from any
	// goroutine.
	stop()
}

// Listener owns the hook and hotkey registrations for one run.
type Listener struct {
	hotkeyCfg config.Hotkey
	mouseCfg  config.MouseCapture
	handler   func(Trigger)
	p         platform

	running  atomic.Bool
	state    atomic.Int32
	triggers atomic.Uint64
	inflight sync.WaitGroup

	// owned by the Run goroutine
	hotkeyActive bool
	hookActive   bool
}

// New returns an idle Listener for cfg. handler runs once per trigger on
// its own goroutine and may overlap with other handler calls.
func New(cfg *config.Config, handler func(Trigger)) *Listener {
	return newWithPlatform(cfg, handler, newPlatform())
}

func newWithPlatform(cfg *config.Config, handler func(Trigger), p platform) *Listener {
	return &Listener{
		hotkeyCfg: cfg.Hotkey,
		mouseCfg:  cfg.MouseCapture,
		handler:   handler,
		p:         p,
	}
}

// State returns the current lifecycle state.
func (l *Listener) State() State { return State(l.state.Load()) }

// Triggers returns how many triggers have been dispatched so far.
func (l *Listener) Triggers() uint64 { return l.triggers.Load() }

// Run arms the enabled triggers and blocks in the event loop until ctx is
// cancelled or the loop fails. On the way out the hotkey is unregistered and
// then the hook removed, each independently. In-flight handler calls are not
// cancelled; Run waits for them before returning.
func (l *Listener) Run(ctx context.Context) error {
	if !l.hotkeyCfg.Enabled && !l.mouseCfg.Enabled {
		return ErrNoTriggers
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	// Hook callbacks and hotkey messages are delivered to the thread that
	// installed them, which must also run the loop.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := l.p.prepare(); err != nil {
		return err
	}
	if !l.arm() {
		return ErrNotArmed
	}
	l.state.Store(int32(Armed))
	slog.Info("listening", "hotkey", l.hotkeyActive, "mouse", l.hookActive)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			slog.Info("listener interrupted")
			l.p.stop()
		case <-done:
		}
	}()

	loopErr := l.p.loop(func() { l.dispatch(SourceHotkey) })
	close(done)

	l.state.Store(int32(ShuttingDown))
	l.disarm()
	l.inflight.Wait()
	l.state.Store(int32(Idle))
	slog.Info("listener stopped", "triggers", l.Triggers())

	if loopErr != nil {
		return fmt.Errorf("event loop: %w", loopErr)
	}
	return nil
}

// arm installs whichever mechanisms are enabled. A failure in one does not
// prevent the other. It reports whether at least one is active.
func (l *Listener) arm() bool {
	if l.hotkeyCfg.Enabled {
		hk, err := ParseHotkey(l.hotkeyCfg)
		if err == nil {
			err = l.p.registerHotkey(hk)
		}
		if err != nil {
			slog.Warn("failed to register hotkey", "hotkey", l.hotkeyCfg.String(), "err", err)
		} else {
			l.hotkeyActive = true
			slog.Info("keyboard hotkey active", "hotkey", hk.Name)
		}
	}

	if l.mouseCfg.Enabled {
		btn, err := ParseButton(l.mouseCfg.Button)
		if err == nil {
			err = l.p.installPointerHook(btn, func() { l.dispatch(SourcePointer) })
		}
		if err != nil {
			slog.Warn("failed to install mouse hook", "button", l.mouseCfg.Button, "err", err)
		} else {
			l.hookActive = true
			slog.Info("mouse button capture active", "button", btn.Name)
		}
	}

	return l.hotkeyActive || l.hookActive
}

// disarm removes the hotkey, then the hook. Each step is best-effort.
func (l *Listener) disarm() {
	if l.hotkeyActive {
		if err := l.p.unregisterHotkey(); err != nil {
			slog.Warn("failed to unregister hotkey", "err", err)
		}
		l.hotkeyActive = false
	}
	if l.hookActive {
		if err := l.p.uninstallPointerHook(); err != nil {
			slog.Warn("failed to remove mouse hook", "err", err)
		}
		l.hookActive = false
	}
}

// dispatch hands a trigger to the handler on a new goroutine and returns
// immediately. It is called from inside the hook callback.
func (l *Listener) dispatch(src Source) {
	l.triggers.Add(1)
	l.inflight.Add(1)
	t := Trigger{Source: src, At: time.Now()}
	go func() {
		defer l.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("capture handler panicked", "source", src, "panic", r)
			}
		}()
		l.handler(t)
	}()
}
