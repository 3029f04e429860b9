package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/notd/internal/config"
	"go.klb.dev/notd/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and NOTD_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → NOTD_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	config.SetDefaults(v)

	if err := readConfigFile(cmd, v); err != nil {
		return err
	}

	v.SetEnvPrefix("NOTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	// Logging flags override the nested log.* document keys.
	for key, flag := range map[string]string{
		"log.format": "log-format",
		"log.level":  "log-level",
		"log.file":   "log-file",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding %s: %w", flag, err)
			}
		}
	}
	return nil
}

// utf8BOM prefixes documents saved by editors such as Notepad.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readConfigFile loads --config, or the standard document if it exists.
// A leading byte-order mark is dropped before parsing.
func readConfigFile(cmd *cobra.Command, v *viper.Viper) error {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadConfig(bytes.NewReader(bytes.TrimPrefix(b, utf8BOM))); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// loadConfig decodes the settings snapshot from a bound v and applies the
// per-invocation overrides that are not document keys.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if v.GetBool("silent") {
		cfg.SoundsEnabled = false
	}
	return cfg, nil
}

// configSource names the document the settings came from.
func configSource(v *viper.Viper) string {
	if f := v.ConfigFileUsed(); f != "" {
		if _, err := os.Stat(f); err == nil {
			return f
		}
	}
	return "(built-in defaults)"
}

// addGlobalFlags adds the flags shared by every sub-command.
func addGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "", "path to config file (overrides auto-discovery)")
	f.Bool("silent", false, "suppress audible feedback")
	f.Bool("no-background", false, "run interactively: tinter logs + debug level")
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "", "log level: debug|info|warn|error (default: info for background, debug for interactive)")
	f.String("log-file", "", "also write JSON logs to this rotating file")
}

// setupLogging reads the resolved log settings and configures slog. A
// backgrounded listener with no explicit file logs under the data root.
func setupLogging(v *viper.Viper, cfg *config.Config, daemon bool) io.Closer {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	file := cfg.Log.File
	if file == "" && daemon && !interactive {
		file = filepath.Join(cfg.LogsDir(), "notd.log")
	}
	return resolveLogging(interactive, cfg.Log.Format, cfg.Log.Level, file)
}
