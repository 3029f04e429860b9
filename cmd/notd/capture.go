package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/notd/internal/capture"
	"go.klb.dev/notd/internal/clip"
	"go.klb.dev/notd/internal/feedback"
	"go.klb.dev/notd/internal/store"
)

// newBackend is swapped out in tests.
var newBackend = clip.New

func newCaptureCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Append the current clipboard text to the notes log",
		Long: `Reads the clipboard once, tags the text with a content type, and appends
it to the text or code bucket under <root_dir>/captures.

An empty or non-text clipboard plays the failure cue and writes nothing; it
is not treated as an error.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runCapture(cmd, v) },
	}
	addCaptureFlags(cmd)
	return cmd
}

func addCaptureFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("auto-type", false, "classify the capture even if auto_type is off in the config")
}

func runCapture(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	defer setupLogging(v, cfg, false).Close()

	if v.GetBool("auto-type") {
		cfg.AutoType = true
	}

	op := capture.New(cfg, newBackend(), store.New(cfg), feedback.New(cfg))
	res, err := op.Run()
	switch {
	case errors.Is(err, capture.ErrEmptyClipboard):
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "captured %d chars as %s → %s\n", res.Size, res.Kind, res.Path)
	return nil
}
