package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/notd/internal/clip"
	"go.klb.dev/notd/internal/config"
	"go.klb.dev/notd/internal/ipc"
	"go.klb.dev/notd/internal/listener"
	"go.klb.dev/notd/internal/record"
)

type fakeClip string

func (fakeClip) Name() string                { return "fake" }
func (f fakeClip) ReadText() (string, error) { return string(f), nil }

func useClipboard(t *testing.T, text string) {
	t.Helper()
	prev := newBackend
	newBackend = func() clip.Backend { return fakeClip(text) }
	t.Cleanup(func() { newBackend = prev })
}

// writeConfig creates a settings document rooted in a temp dir and returns
// its path and the root.
func writeConfig(t *testing.T, overrides map[string]any) (string, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "data")
	doc := map[string]any{"root_dir": root, "sounds_enabled": false}
	for k, v := range overrides {
		doc[k] = v
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "notd.config.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path, root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "notd dev\n", out)
}

func TestCapture_DefaultCommand(t *testing.T) {
	useClipboard(t, "https://go.dev/doc")
	cfgPath, root := writeConfig(t, nil)

	out, err := execute(t, "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "as url")

	data, err := os.ReadFile(filepath.Join(root, "captures", "notd_raw.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "TYPE: url\n\nhttps://go.dev/doc\n")
}

func TestCapture_CodeBucket(t *testing.T) {
	useClipboard(t, "def main():\n    pass")
	cfgPath, root := writeConfig(t, map[string]any{"code_file_type": "jsonl"})

	_, err := execute(t, "capture", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(root, "captures", "notd_raw.jsonl"))
	require.NoError(t, err)
	defer f.Close()
	recs, err := record.ParseLines(f)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, record.KindCode, recs[0].Kind)
}

func TestCapture_AutoTypeFlagForcesClassification(t *testing.T) {
	useClipboard(t, "git status")
	cfgPath, root := writeConfig(t, map[string]any{"auto_type": false})

	_, err := execute(t, "capture", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	_, err = execute(t, "capture", "--auto-type", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(root, "captures", "notd_raw.txt"))
	require.NoError(t, err)
	defer f.Close()
	recs, err := record.ParseBlocks(f)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, record.KindCapture, recs[0].Kind)
	assert.Equal(t, record.KindCommand, recs[1].Kind)
}

func TestCapture_EmptyClipboardIsNotAnError(t *testing.T) {
	useClipboard(t, "  \n")
	cfgPath, root := writeConfig(t, nil)

	out, err := execute(t, "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoDirExists(t, filepath.Join(root, "captures"))
}

func TestCapture_InvalidConfig(t *testing.T) {
	useClipboard(t, "hello")
	cfgPath, _ := writeConfig(t, map[string]any{"max_clip_chars": 0})

	_, err := execute(t, "--config", cfgPath)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestCapture_EnvOverride(t *testing.T) {
	useClipboard(t, "plain words")
	cfgPath, _ := writeConfig(t, nil)
	alt := filepath.Join(t.TempDir(), "elsewhere")
	t.Setenv("NOTD_ROOT_DIR", alt)

	_, err := execute(t, "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(alt, "captures", "notd_raw.txt"))
}

func TestConfig_PrintsEffectiveSettings(t *testing.T) {
	cfgPath, root := writeConfig(t, map[string]any{
		"mouse_capture": map[string]any{"enabled": true, "button": "x1"},
	})

	out, err := execute(t, "config", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)

	var got config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, root, got.RootDir)
	assert.Equal(t, "x1", got.MouseCapture.Button)
	assert.Equal(t, "txt", got.TextFileType)
	assert.False(t, got.SoundsEnabled)
}

func TestConfig_AcceptsByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "data")
	doc, err := json.Marshal(map[string]any{"root_dir": root, "text_file_type": "log"})
	require.NoError(t, err)
	cfgPath := filepath.Join(dir, "notd.config.json")
	require.NoError(t, os.WriteFile(cfgPath, append([]byte("\ufeff"), doc...), 0o644))

	out, err := execute(t, "config", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)

	var got config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, root, got.RootDir)
	assert.Equal(t, "log", got.TextFileType)
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	_, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "notd.config.json")

	out, err := execute(t, "config", "--init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	assert.FileExists(t, path)

	out, err = execute(t, "config", "--init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "left unchanged")
}

func TestStatus_JSON(t *testing.T) {
	t.Setenv("NOTD_SOCKET", filepath.Join(t.TempDir(), "none.sock"))
	useClipboard(t, "note to self")
	cfgPath, root := writeConfig(t, nil)
	for range 2 {
		_, err := execute(t, "--config", cfgPath, "--log-level", "error")
		require.NoError(t, err)
	}

	out, err := execute(t, "status", "--json", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)

	var r statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, cfgPath, r.Config)
	assert.Equal(t, root, r.RootDir)
	assert.Equal(t, "disabled", r.Hotkey)
	assert.Equal(t, "middle", r.Mouse)
	assert.Nil(t, r.Listener)
	require.Len(t, r.Buckets, 2)
	assert.True(t, r.Buckets[0].Exists)
	assert.Positive(t, r.Buckets[0].Size)
	assert.Equal(t, 2, r.Buckets[0].Entries)
	assert.Empty(t, r.Buckets[0].Damaged)
	assert.False(t, r.Buckets[1].Exists)
	assert.Zero(t, r.Buckets[1].Entries)
}

func TestStatus_EntryCounts(t *testing.T) {
	t.Setenv("NOTD_SOCKET", filepath.Join(t.TempDir(), "none.sock"))
	cfgPath, root := writeConfig(t, map[string]any{"code_file_type": "jsonl"})

	for _, text := range []string{"import os", "def f(): pass", "just words"} {
		useClipboard(t, text)
		_, err := execute(t, "--config", cfgPath, "--log-level", "error")
		require.NoError(t, err)
	}
	// An entry cut off mid-write leaves the text bucket partly readable.
	textPath := filepath.Join(root, "captures", "notd_raw.txt")
	f, err := os.OpenFile(textPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(record.Divider + "\nPROJECT: notd\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := execute(t, "status", "--json", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	var r statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Buckets, 2)
	assert.Equal(t, 1, r.Buckets[0].Entries)
	assert.NotEmpty(t, r.Buckets[0].Damaged)
	assert.Equal(t, 2, r.Buckets[1].Entries)
	assert.Empty(t, r.Buckets[1].Damaged)

	out, err = execute(t, "status", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "ENTRIES")
	assert.Contains(t, out, "1+?")
}

func TestStatus_Table(t *testing.T) {
	t.Setenv("NOTD_SOCKET", filepath.Join(t.TempDir(), "none.sock"))
	cfgPath, _ := writeConfig(t, nil)

	out, err := execute(t, "status", "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
	assert.Contains(t, out, "notd_raw.md")
	assert.True(t, strings.HasPrefix(out, "Config:"))
}

func TestListen_UnsupportedReleasesEndpoint(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hooks are available on windows")
	}
	dir, err := os.MkdirTemp("", "notd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv("NOTD_SOCKET", filepath.Join(dir, "l.sock"))
	cfgPath, _ := writeConfig(t, nil)

	_, err = execute(t, "listen", "--config", cfgPath, "--log-level", "error")
	assert.ErrorIs(t, err, listener.ErrUnsupported)
	assert.False(t, ipc.IsRunning())
}

func TestListen_NoTriggers(t *testing.T) {
	dir, err := os.MkdirTemp("", "notd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv("NOTD_SOCKET", filepath.Join(dir, "l.sock"))
	cfgPath, _ := writeConfig(t, map[string]any{
		"mouse_capture": map[string]any{"enabled": false},
	})

	_, err = execute(t, "hotkey", "--config", cfgPath, "--log-level", "error")
	assert.ErrorIs(t, err, listener.ErrNoTriggers)
}

func TestFmtSize(t *testing.T) {
	assert.Equal(t, "512 B", fmtSize(512))
	assert.Equal(t, "2.0 KiB", fmtSize(2048))
	assert.Equal(t, "1.5 MiB", fmtSize(3<<19))
}
