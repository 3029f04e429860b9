// Package config holds the capture settings snapshot. It is loaded once per
// process through viper and treated as read-only afterwards.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the settings document name, without extension.
const FileName = "notd.config"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Hotkey is the keyboard trigger definition.
type Hotkey struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Ctrl    bool   `mapstructure:"ctrl" json:"ctrl"`
	Alt     bool   `mapstructure:"alt" json:"alt"`
	Shift   bool   `mapstructure:"shift" json:"shift"`
	Win     bool   `mapstructure:"win" json:"win"`
	Key     string `mapstructure:"key" json:"key"`
}

// String renders the combination as e.g. "Ctrl+Alt+N".
func (h Hotkey) String() string {
	var parts []string
	if h.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if h.Alt {
		parts = append(parts, "Alt")
	}
	if h.Shift {
		parts = append(parts, "Shift")
	}
	if h.Win {
		parts = append(parts, "Win")
	}
	parts = append(parts, strings.ToUpper(h.Key))
	return strings.Join(parts, "+")
}

// MouseCapture is the pointer trigger definition.
type MouseCapture struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Button  string `mapstructure:"button" json:"button"`
}

// Log configures the process logger.
type Log struct {
	Format string `mapstructure:"format" json:"format,omitempty"`
	Level  string `mapstructure:"level" json:"level,omitempty"`
	File   string `mapstructure:"file" json:"file,omitempty"`
}

// Config is the settings snapshot.
type Config struct {
	RootDir       string       `mapstructure:"root_dir" json:"root_dir"`
	TextFileType  string       `mapstructure:"text_file_type" json:"text_file_type"`
	CodeFileType  string       `mapstructure:"code_file_type" json:"code_file_type"`
	SchemaEnabled bool         `mapstructure:"schema_enabled" json:"schema_enabled"`
	AutoType      bool         `mapstructure:"auto_type" json:"auto_type"`
	SoundsEnabled bool         `mapstructure:"sounds_enabled" json:"sounds_enabled"`
	SuccessSound  string       `mapstructure:"success_sound" json:"success_sound"`
	FailSound     string       `mapstructure:"fail_sound" json:"fail_sound"`
	MaxClipChars  int          `mapstructure:"max_clip_chars" json:"max_clip_chars"`
	Hotkey        Hotkey       `mapstructure:"hotkey" json:"hotkey"`
	MouseCapture  MouseCapture `mapstructure:"mouse_capture" json:"mouse_capture"`
	Log           Log          `mapstructure:"log" json:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{
		RootDir:       DefaultRoot(),
		TextFileType:  "txt",
		CodeFileType:  "md",
		SchemaEnabled: true,
		AutoType:      true,
		SoundsEnabled: true,
		MaxClipChars:  200000,
		Hotkey: Hotkey{
			Enabled: false,
			Ctrl:    true,
			Alt:     true,
			Key:     "N",
		},
		MouseCapture: MouseCapture{
			Enabled: true,
			Button:  "middle",
		},
		Log: Log{Format: "auto"},
	}
	if runtime.GOOS == "windows" {
		c.SuccessSound = `C:\Windows\Media\Windows Hardware Insert.wav`
		c.FailSound = `C:\Windows\Media\Windows Hardware Fail.wav`
	}
	return c
}

// DefaultRoot is the data directory used when root_dir is unset.
func DefaultRoot() string {
	if runtime.GOOS == "windows" {
		return `C:\notd_data`
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "notd_data")
	}
	return "notd_data"
}

// Home is the directory searched for the settings document.
func Home() string {
	if runtime.GOOS == "windows" {
		return `C:\notd\config`
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "notd")
	}
	return ".notd"
}

// DefaultPath is where WriteDefault puts a fresh settings document.
func DefaultPath() string {
	return filepath.Join(Home(), FileName+".json")
}

// SetDefaults registers every key of Default on v so that env overrides and
// Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root_dir", d.RootDir)
	v.SetDefault("text_file_type", d.TextFileType)
	v.SetDefault("code_file_type", d.CodeFileType)
	v.SetDefault("schema_enabled", d.SchemaEnabled)
	v.SetDefault("auto_type", d.AutoType)
	v.SetDefault("sounds_enabled", d.SoundsEnabled)
	v.SetDefault("success_sound", d.SuccessSound)
	v.SetDefault("fail_sound", d.FailSound)
	v.SetDefault("max_clip_chars", d.MaxClipChars)
	v.SetDefault("hotkey.enabled", d.Hotkey.Enabled)
	v.SetDefault("hotkey.ctrl", d.Hotkey.Ctrl)
	v.SetDefault("hotkey.alt", d.Hotkey.Alt)
	v.SetDefault("hotkey.shift", d.Hotkey.Shift)
	v.SetDefault("hotkey.win", d.Hotkey.Win)
	v.SetDefault("hotkey.key", d.Hotkey.Key)
	v.SetDefault("mouse_capture.enabled", d.MouseCapture.Enabled)
	v.SetDefault("mouse_capture.button", d.MouseCapture.Button)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate enforces the snapshot invariants.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RootDir) == "" {
		return fmt.Errorf("%w: root_dir is empty", ErrInvalid)
	}
	for key, ext := range map[string]string{
		"text_file_type": c.TextFileType,
		"code_file_type": c.CodeFileType,
	} {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalid, key)
		}
		if strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("%w: %s %q must be a bare extension", ErrInvalid, key, ext)
		}
	}
	if c.MaxClipChars <= 0 {
		return fmt.Errorf("%w: max_clip_chars must be positive, got %d", ErrInvalid, c.MaxClipChars)
	}
	return nil
}

// ClassifyEnabled reports whether captures are classified or tagged with
// the fixed capture kind. Only auto_type decides; schema_enabled is carried
// in the document but does not gate classification.
func (c *Config) ClassifyEnabled() bool {
	return c.AutoType
}

// CapturesDir is the directory holding the bucket files.
func (c *Config) CapturesDir() string {
	return filepath.Join(c.RootDir, "captures")
}

// LogsDir is the default home of the rotating listener log.
func (c *Config) LogsDir() string {
	return filepath.Join(c.RootDir, "logs")
}

// WriteDefault writes Default as an indented JSON document to path, creating
// parent directories. An existing file is left untouched and reported via
// the returned bool.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("config dir: %w", err)
	}
	b, err := json.MarshalIndent(Default(), "", "    ")
	if err != nil {
		return false, fmt.Errorf("config encode: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("config write: %w", err)
	}
	return true, nil
}
