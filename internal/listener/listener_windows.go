//go:build windows

package listener

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	whMouseLL  = 14
	hcAction   = 0
	wmQuit     = 0x0012
	wmHotkey   = 0x0312
	pmNoRemove = 0x0000

	hotkeyID = 9001
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procRegisterHotKey      = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey    = user32.NewProc("UnregisterHotKey")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
)

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// msllHookStruct is MSLLHOOKSTRUCT.
type msllHookStruct struct {
	Pt        point
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// winPlatform owns the hook handle, the hotkey registration, and the hook
// callback. The callback is created once per platform; Windows keeps at
// most a few thousand callbacks alive per process and never frees them.
type winPlatform struct {
	threadID uint32
	hook     uintptr
	callback uintptr
	button   Button
	onDown   func()
}

func newPlatform() platform {
	p := &winPlatform{}
	p.callback = windows.NewCallback(p.mouseProc)
	return p
}

func (p *winPlatform) prepare() error {
	p.threadID = windows.GetCurrentThreadId()
	// Force creation of the thread message queue so stop can post WM_QUIT
	// even before the loop starts.
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)
	return nil
}

func (p *winPlatform) registerHotkey(hk Hotkey) error {
	r, _, err := procRegisterHotKey.Call(0, hotkeyID, uintptr(hk.Modifiers), uintptr(hk.VK))
	if r == 0 {
		return fmt.Errorf("RegisterHotKey %s: %w", hk.Name, err)
	}
	return nil
}

func (p *winPlatform) unregisterHotkey() error {
	r, _, err := procUnregisterHotKey.Call(0, hotkeyID)
	if r == 0 {
		return fmt.Errorf("UnregisterHotKey: %w", err)
	}
	return nil
}

func (p *winPlatform) installPointerHook(b Button, onDown func()) error {
	p.button = b
	p.onDown = onDown
	mod, _, _ := procGetModuleHandleW.Call(0)
	h, _, err := procSetWindowsHookExW.Call(whMouseLL, p.callback, mod, 0)
	if h == 0 {
		return fmt.Errorf("SetWindowsHookExW: %w", err)
	}
	p.hook = h
	return nil
}

func (p *winPlatform) uninstallPointerHook() error {
	if p.hook == 0 {
		return nil
	}
	r, _, err := procUnhookWindowsHookEx.Call(p.hook)
	p.hook = 0
	if r == 0 {
		return fmt.Errorf("UnhookWindowsHookEx: %w", err)
	}
	return nil
}

// mouseProc runs on the loop thread inside the system hook chain. It must
// not block: a matching press is handed off and both press and release are
// swallowed so the default gesture (e.g. autoscroll) never starts.
func (p *winPlatform) mouseProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == hcAction && lParam != 0 {
		info := (*msllHookStruct)(unsafe.Add(unsafe.Pointer(nil), lParam))
		if p.swallow(uint32(wParam), info) {
			return 1
		}
	}
	r, _, _ := procCallNextHookEx.Call(p.hook, uintptr(nCode), wParam, lParam)
	return r
}

// swallow reports whether the event belongs to the configured button,
// firing onDown for the press.
func (p *winPlatform) swallow(msg uint32, info *msllHookStruct) bool {
	if p.onDown == nil || info == nil {
		return false
	}
	down, ok := p.button.Matches(msg, info.MouseData)
	if !ok {
		return false
	}
	if down {
		p.onDown()
	}
	return true
}

func (p *winPlatform) loop(onHotkey func()) error {
	var m msg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case 0:
			return nil
		case -1:
			return fmt.Errorf("GetMessageW: %w", err)
		}
		if m.Message == wmHotkey && m.WParam == hotkeyID {
			onHotkey()
			continue
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (p *winPlatform) stop() {
	procPostThreadMessageW.Call(uintptr(p.threadID), wmQuit, 0, 0)
}
