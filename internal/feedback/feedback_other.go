//go:build !windows

package feedback

import "errors"

var errNoPlayer = errors.New("no sound player on this platform")

func playAsync(string) error { return errNoPlayer }
