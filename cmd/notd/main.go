// notd: capture the clipboard into a local append-only notes log.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/notd/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	capture := newCaptureCmd()

	root := &cobra.Command{
		Use:   "notd",
		Short: "Capture the clipboard into a local notes log",
		Long: `notd appends the current clipboard text, timestamped and tagged with a
content type, to plain-text log files under its data directory.

Run "notd" (or "notd capture") for a one-shot capture, or "notd listen" to
arm a mouse button and/or global hotkey that capture on demand.

Config file search order (first found wins):
  path supplied via --config
  C:\notd\config\notd.config.json       (Windows)
  $XDG_CONFIG_HOME/notd/notd.config.json (elsewhere)

Every setting can be overridden with NOTD_<KEY> env vars, e.g.
NOTD_ROOT_DIR or NOTD_MOUSE_CAPTURE_BUTTON.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE:      capture.PreRunE,
		RunE:         capture.RunE,
	}
	addCaptureFlags(root)
	addGlobalFlags(root)

	root.AddCommand(
		capture,
		newListenCmd(),
		newStatusCmd(),
		newOpenCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "notd %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr, file string) io.Closer {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	return logging.Setup(logging.Options{Format: format, Level: level, File: file})
}
