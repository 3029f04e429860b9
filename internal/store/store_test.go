package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/notd/internal/config"
	"go.klb.dev/notd/internal/record"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.RootDir = filepath.Join(t.TempDir(), "root")
	return cfg
}

func readRecords(t *testing.T, path string) []record.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := record.Parse(f, record.FormatFor(path))
	require.NoError(t, err)
	return recs
}

func TestPath(t *testing.T) {
	cfg := testConfig(t)
	w := New(cfg)

	captures := filepath.Join(cfg.RootDir, "captures")
	assert.Equal(t, captures, w.Dir())
	assert.Equal(t, filepath.Join(captures, "notd_raw.txt"), w.Path(record.BucketText))
	assert.Equal(t, filepath.Join(captures, "notd_raw.md"), w.Path(record.BucketCode))
	assert.Equal(t, []string{w.Path(record.BucketText), w.Path(record.BucketCode)}, w.Paths())

	cfg.CodeFileType = "txt"
	assert.Len(t, New(cfg).Paths(), 1)
}

func TestEnsureDir_Idempotent(t *testing.T) {
	w := New(testConfig(t))

	require.NoError(t, w.EnsureDir())
	require.NoError(t, w.EnsureDir())

	info, err := os.Stat(w.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAppend_SelectsBucketByKind(t *testing.T) {
	w := New(testConfig(t))
	now := time.Now()

	path, err := w.Append(record.Record{Text: "https://example.com", Kind: record.KindURL, Time: now})
	require.NoError(t, err)
	assert.Equal(t, w.Path(record.BucketText), path)

	path, err = w.Append(record.Record{Text: "def foo():\n    pass", Kind: record.KindCode, Time: now})
	require.NoError(t, err)
	assert.Equal(t, w.Path(record.BucketCode), path)

	text := readRecords(t, w.Path(record.BucketText))
	require.Len(t, text, 1)
	assert.Equal(t, record.KindURL, text[0].Kind)

	code := readRecords(t, w.Path(record.BucketCode))
	require.Len(t, code, 1)
	assert.Equal(t, "def foo():\n    pass", code[0].Text)
}

func TestAppend_AppendsNotTruncates(t *testing.T) {
	w := New(testConfig(t))
	for i := range 3 {
		_, err := w.Append(record.Record{Text: fmt.Sprintf("entry %d", i), Kind: record.KindText, Time: time.Now()})
		require.NoError(t, err)
	}
	recs := readRecords(t, w.Path(record.BucketText))
	require.Len(t, recs, 3)
	assert.Equal(t, "entry 0", recs[0].Text)
	assert.Equal(t, "entry 2", recs[2].Text)
}

func TestAppend_JSONLineBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.TextFileType = "jsonl"
	w := New(cfg)

	_, err := w.Append(record.Record{Text: "hello\nworld", Kind: record.KindText, Time: time.Now()})
	require.NoError(t, err)
	_, err = w.Append(record.Record{Text: "again", Kind: record.KindError, Time: time.Now()})
	require.NoError(t, err)

	b, err := os.ReadFile(w.Path(record.BucketText))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "\n"))
	assert.NotContains(t, string(b), record.Divider)

	recs := readRecords(t, w.Path(record.BucketText))
	require.Len(t, recs, 2)
	assert.Equal(t, "hello\nworld", recs[0].Text)
}

func TestAppend_ConcurrentRecordsDoNotInterleave(t *testing.T) {
	w := New(testConfig(t))

	const n = 32
	big := strings.Repeat("x", 64*1024)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("writer-%02d\n%s", i, big)
			_, err := w.Append(record.Record{Text: text, Kind: record.KindText, Time: time.Now()})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	recs := readRecords(t, w.Path(record.BucketText))
	require.Len(t, recs, n)

	seen := make(map[string]bool, n)
	for _, r := range recs {
		head, body, ok := strings.Cut(r.Text, "\n")
		require.True(t, ok)
		assert.Equal(t, big, body, "record %s was interleaved", head)
		seen[head] = true
	}
	assert.Len(t, seen, n)
}

func TestAppend_WriteFailure(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the root directory should be makes MkdirAll fail.
	require.NoError(t, os.WriteFile(cfg.RootDir, []byte("not a dir"), 0o600))

	_, err := New(cfg).Append(record.Record{Text: "x", Kind: record.KindText, Time: time.Now()})
	assert.Error(t, err)
}

func TestLockPath(t *testing.T) {
	got := lockPath(filepath.Join("a", "b", "notd_raw.txt"))
	assert.Equal(t, filepath.Join("a", "b", ".notd_raw.txt.lock"), got)
}
