//go:build windows

package feedback

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	sndAsync     = 0x0001
	sndNoDefault = 0x0002
	sndFilename  = 0x00020000
)

var (
	winmm         = windows.NewLazySystemDLL("winmm.dll")
	procPlaySound = winmm.NewProc("PlaySoundW")
)

// playAsync queues the file on the system player and returns immediately.
func playAsync(path string) error {
	if err := procPlaySound.Find(); err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	r, _, callErr := procPlaySound.Call(
		uintptr(unsafe.Pointer(p)),
		0,
		sndFilename|sndAsync|sndNoDefault,
	)
	if r == 0 {
		return callErr
	}
	return nil
}
