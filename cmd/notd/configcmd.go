package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/notd/internal/config"
)

func newConfigCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Long: `Prints the settings after defaults, the config file, NOTD_* env vars, and
flags have been applied, as a JSON document.

With --init, writes the built-in defaults to the --config path (or the
standard location) unless a file already exists there.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			// --init may target a file that does not exist yet.
			if doInit, _ := cmd.Flags().GetBool("init"); doInit {
				return nil
			}
			return bindViper(cmd, v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return runConfig(cmd, v) },
	}
	cmd.Flags().Bool("init", false, "write a default config file if none exists")
	return cmd
}

func runConfig(cmd *cobra.Command, v *viper.Viper) error {
	out := cmd.OutOrStdout()

	if doInit, _ := cmd.Flags().GetBool("init"); doInit {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.DefaultPath()
		}
		created, err := config.WriteDefault(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "wrote %s\n", path)
		} else {
			fmt.Fprintf(out, "%s already exists, left unchanged\n", path)
		}
		return nil
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config encode: %w", err)
	}
	fmt.Fprintf(out, "%s\n", b)
	return nil
}
