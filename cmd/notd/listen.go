package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/notd/internal/capture"
	"go.klb.dev/notd/internal/config"
	"go.klb.dev/notd/internal/feedback"
	"go.klb.dev/notd/internal/ipc"
	"go.klb.dev/notd/internal/listener"
	"go.klb.dev/notd/internal/store"
)

func newListenCmd() *cobra.Command {
	v := viper.New()

	return &cobra.Command{
		Use:     "listen",
		Aliases: []string{"hotkey"},
		Short:   "Capture on a mouse button or global hotkey until interrupted",
		Long: `Arms the configured triggers and runs until SIGINT/SIGTERM:

  mouse_capture  a low-level mouse hook on the chosen button (default middle);
                 press and release are swallowed so the click does nothing else
  hotkey         a system-wide key combination (default Ctrl+Alt+N, disabled)

Each trigger runs one capture on its own goroutine. Only one listener may run
per user session; "notd status" reports its counters.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runListen(cmd, v) },
	}
}

// listenStats are the counters served over IPC.
type listenStats struct {
	started  time.Time
	captured atomic.Uint64
	failed   atomic.Uint64
}

func runListen(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	defer setupLogging(v, cfg, true).Close()

	ln, err := ipc.Listen()
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		return err
	}
	if err != nil {
		slog.Warn("status endpoint unavailable", "err", err)
	}

	w := store.New(cfg)
	if err := w.EnsureDir(); err != nil {
		// Each capture retries; the listener still arms.
		slog.Warn("captures directory not ready", "dir", w.Dir(), "err", err)
	}
	op := capture.New(cfg, newBackend(), w, feedback.New(cfg))

	stats := &listenStats{started: time.Now()}
	l := listener.New(cfg, func(tr listener.Trigger) {
		slog.Debug("trigger", "source", tr.Source)
		if _, err := op.Run(); err != nil {
			stats.failed.Add(1)
			return
		}
		stats.captured.Add(1)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	served := make(chan struct{})
	if ln != nil {
		go func() {
			defer close(served)
			if err := ipc.Serve(ctx, ln, func() ipc.Status { return snapshot(cfg, l, stats) }); err != nil {
				slog.Warn("status endpoint stopped", "err", err)
			}
		}()
	} else {
		close(served)
	}

	slog.Info("notd listener starting",
		"version", Version,
		"root", cfg.RootDir,
		"captures", w.Dir(),
	)
	err = l.Run(ctx)

	// Release the endpoint before returning so a new listener can start.
	stop()
	<-served
	return err
}

func snapshot(cfg *config.Config, l *listener.Listener, s *listenStats) ipc.Status {
	st := ipc.Status{
		PID:       os.Getpid(),
		StartedAt: s.started,
		State:     l.State().String(),
		Triggers:  l.Triggers(),
		Captured:  s.captured.Load(),
		Failed:    s.failed.Load(),
		RootDir:   cfg.RootDir,
	}
	if cfg.Hotkey.Enabled {
		st.Hotkey = cfg.Hotkey.String()
	}
	if cfg.MouseCapture.Enabled {
		st.Mouse = cfg.MouseCapture.Button
	}
	return st
}
