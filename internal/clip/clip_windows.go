//go:build windows

package clip

import (
	"errors"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	cfUnicodeText = 13

	openAttempts   = 10
	openRetryDelay = 10 * time.Millisecond
)

// ErrBusy is returned when another process keeps the clipboard open for the
// whole retry window.
var ErrBusy = errors.New("clipboard busy")

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	procGlobalLock                 = kernel32.NewProc("GlobalLock")
	procGlobalUnlock               = kernel32.NewProc("GlobalUnlock")
	procGlobalSize                 = kernel32.NewProc("GlobalSize")
)

type windowsBackend struct{}

// New returns the Win32 clipboard backend. Unlike golang.design/x/clipboard,
// which spins until OpenClipboard succeeds, this backend gives up after a
// bounded number of attempts so a clipboard held by another process can
// never stall a capture.
func New() Backend {
	return windowsBackend{}
}

func (windowsBackend) Name() string { return "Windows Clipboard" }

func (windowsBackend) ReadText() (string, error) {
	// OpenClipboard/CloseClipboard must pair on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if r, _, _ := procIsClipboardFormatAvailable.Call(cfUnicodeText); r == 0 {
		return "", nil
	}
	if err := openClipboard(); err != nil {
		return "", err
	}
	defer procCloseClipboard.Call()

	h, _, err := procGetClipboardData.Call(cfUnicodeText)
	if h == 0 {
		return "", fmt.Errorf("GetClipboardData: %w", err)
	}
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		return "", fmt.Errorf("GlobalLock: %w", err)
	}
	defer procGlobalUnlock.Call(h)

	size, _, _ := procGlobalSize.Call(h)
	// The handle is valid until CloseClipboard; copy out before returning.
	return utf16Text(osPointer(p), size), nil
}

// osPointer turns an address handed out by the OS (outside the Go heap)
// into a pointer without a uintptr-to-Pointer conversion.
func osPointer(addr uintptr) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(nil), addr)
}

// utf16Text decodes a NUL-terminated UTF-16 buffer of size bytes.
func utf16Text(p unsafe.Pointer, size uintptr) string {
	n := int(size / 2)
	if p == nil || n == 0 {
		return ""
	}
	return windows.UTF16ToString(unsafe.Slice((*uint16)(p), n))
}

func openClipboard() error {
	for i := 0; i < openAttempts; i++ {
		if r, _, _ := procOpenClipboard.Call(0); r != 0 {
			return nil
		}
		time.Sleep(openRetryDelay)
	}
	return ErrBusy
}
