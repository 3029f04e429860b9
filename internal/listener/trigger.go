package listener

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.klb.dev/notd/internal/config"
)

// RegisterHotKey modifier flags.
const (
	ModAlt      = 0x0001
	ModControl  = 0x0002
	ModShift    = 0x0004
	ModWin      = 0x0008
	ModNoRepeat = 0x4000
)

// Low-level mouse message identifiers.
const (
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
)

var (
	ErrUnknownKey    = errors.New("unknown hotkey key")
	ErrUnknownButton = errors.New("unknown mouse button")
)

// Hotkey is a parsed keyboard trigger ready for registration.
type Hotkey struct {
	Modifiers uint32
	VK        uint32
	Name      string
}

// ParseHotkey converts the configured combination into a modifier mask and
// virtual key code. Keys are A–Z, 0–9 and F1–F24, case-insensitive.
// Auto-repeat is always suppressed so a held key fires once.
func ParseHotkey(h config.Hotkey) (Hotkey, error) {
	vk, err := virtualKey(h.Key)
	if err != nil {
		return Hotkey{}, err
	}
	mods := uint32(ModNoRepeat)
	if h.Ctrl {
		mods |= ModControl
	}
	if h.Alt {
		mods |= ModAlt
	}
	if h.Shift {
		mods |= ModShift
	}
	if h.Win {
		mods |= ModWin
	}
	return Hotkey{Modifiers: mods, VK: vk, Name: h.String()}, nil
}

func virtualKey(key string) (uint32, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return uint32(c), nil // VK codes equal ASCII for these ranges
		}
	}
	if rest, ok := strings.CutPrefix(k, "F"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 24 {
			return uint32(0x70 + n - 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Button is a parsed pointer trigger: the message pair to intercept and,
// for extended buttons, which one.
type Button struct {
	Name    string
	Down    uint32
	Up      uint32
	XButton uint16 // 0 unless Down is WM_XBUTTONDOWN
}

// ParseButton resolves a configured button name. The left button is
// refused: suppressing it would make the desktop unusable.
func ParseButton(name string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "middle", "":
		return Button{Name: "middle", Down: wmMButtonDown, Up: wmMButtonUp}, nil
	case "right":
		return Button{Name: "right", Down: wmRButtonDown, Up: wmRButtonUp}, nil
	case "x1", "back":
		return Button{Name: "x1", Down: wmXButtonDown, Up: wmXButtonUp, XButton: 1}, nil
	case "x2", "forward":
		return Button{Name: "x2", Down: wmXButtonDown, Up: wmXButtonUp, XButton: 2}, nil
	case "left":
		return Button{}, fmt.Errorf("%w: left button cannot be captured", ErrUnknownButton)
	}
	return Button{}, fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

// Matches reports whether a low-level mouse message belongs to b, and if so
// whether it is the press. Both press and release of a matching button are
// suppressed by the hook.
func (b Button) Matches(msg uint32, mouseData uint32) (down, ok bool) {
	if msg != b.Down && msg != b.Up {
		return false, false
	}
	if b.XButton != 0 && uint16(mouseData>>16) != b.XButton {
		return false, false
	}
	return msg == b.Down, true
}
