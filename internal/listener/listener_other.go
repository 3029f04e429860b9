//go:build !windows

package listener

// unsupportedPlatform refuses to arm; global hooks exist only on Windows.
type unsupportedPlatform struct{}

func newPlatform() platform { return unsupportedPlatform{} }

func (unsupportedPlatform) prepare() error                          { return ErrUnsupported }
func (unsupportedPlatform) registerHotkey(Hotkey) error             { return ErrUnsupported }
func (unsupportedPlatform) unregisterHotkey() error                 { return nil }
func (unsupportedPlatform) installPointerHook(Button, func()) error { return ErrUnsupported }
func (unsupportedPlatform) uninstallPointerHook() error             { return nil }
func (unsupportedPlatform) loop(func()) error                       { return ErrUnsupported }
func (unsupportedPlatform) stop()                                   {}
