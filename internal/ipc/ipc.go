// Package ipc is the local control channel of a running notd listener. The
// listener serves it for two reasons: a second listener probes it to refuse
// double-arming the same hooks, and "notd status" reads live counters from
// it. Each connection receives one JSON-encoded Status line and is closed.
//
// Linux / macOS use a Unix domain socket; Windows uses a named pipe.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// ErrAlreadyRunning is returned by Listen when another listener answers on
// the socket.
var ErrAlreadyRunning = errors.New("a notd listener is already running")

// DialTimeout bounds Query.
const DialTimeout = 2 * time.Second

// Status is the snapshot a running listener reports.
type Status struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	State     string    `json:"state"`
	Triggers  uint64    `json:"triggers"`
	Captured  uint64    `json:"captured"`
	Failed    uint64    `json:"failed"`
	Hotkey    string    `json:"hotkey,omitempty"`
	Mouse     string    `json:"mouse,omitempty"`
	RootDir   string    `json:"root_dir"`
}

// SocketPath returns the platform-appropriate path for the IPC endpoint.
//
//   - Linux / macOS: $XDG_RUNTIME_DIR/notd.sock, else $TMPDIR/notd.sock
//     (override with $NOTD_SOCKET)
//   - Windows:       \\.\pipe\notd
func SocketPath() string {
	if s := os.Getenv("NOTD_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a listener appears to be serving the socket.
// It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := dialIPC(SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen claims the IPC endpoint for this process. A live endpoint yields
// ErrAlreadyRunning; a stale socket file from a crashed run is replaced.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if IsRunning() {
		return nil, fmt.Errorf("%w (%s)", ErrAlreadyRunning, path)
	}
	removeStale(path)
	ln, err := listenIPC(path)
	if err != nil {
		return nil, fmt.Errorf("ipc listen %s: %w", path, err)
	}
	return ln, nil
}

// Serve answers every connection on ln with snapshot() until ctx is
// cancelled, then closes ln.
func Serve(ctx context.Context, ln net.Listener, snapshot func() Status) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("ipc accept: %w", err)
		}
		go reply(c, snapshot())
	}
}

func reply(c net.Conn, st Status) {
	defer c.Close()
	_ = c.SetWriteDeadline(time.Now().Add(DialTimeout))
	if err := json.NewEncoder(c).Encode(st); err != nil {
		slog.Debug("ipc reply failed", "err", err)
	}
}

// Query asks the running listener for its status.
func Query() (Status, error) {
	c, err := dialIPC(SocketPath())
	if err != nil {
		return Status{}, fmt.Errorf("ipc dial: %w", err)
	}
	defer c.Close()
	_ = c.SetReadDeadline(time.Now().Add(DialTimeout))

	var st Status
	if err := json.NewDecoder(c).Decode(&st); err != nil {
		return Status{}, fmt.Errorf("ipc read: %w", err)
	}
	return st, nil
}
