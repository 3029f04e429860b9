package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/notd/internal/store"
)

func newOpenCmd() *cobra.Command {
	v := viper.New()

	return &cobra.Command{
		Use:     "open",
		Short:   "Open the captures folder in the file manager",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer setupLogging(v, cfg, false).Close()

			w := store.New(cfg)
			if err := w.EnsureDir(); err != nil {
				return err
			}
			if err := fileManager(w.Dir()).Start(); err != nil {
				return fmt.Errorf("open %s: %w", w.Dir(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), w.Dir())
			return nil
		},
	}
}

func fileManager(dir string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", dir)
	case "darwin":
		return exec.Command("open", dir)
	}
	return exec.Command("xdg-open", dir)
}
