// Package store appends capture records to the per-bucket log files under
// <root>/captures. Files are append-only and never read back here.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"go.klb.dev/notd/internal/config"
	"go.klb.dev/notd/internal/record"
)

const (
	// BaseName is the bucket file name without extension.
	BaseName = "notd_raw"

	// LockTimeout bounds the wait for the cross-process file lock.
	LockTimeout = 2 * time.Second

	lockRetryDelay = 10 * time.Millisecond
)

// ErrLockTimeout is returned when another process holds a bucket lock for
// longer than LockTimeout.
var ErrLockTimeout = errors.New("store: bucket lock timeout")

// Writer resolves bucket files and appends complete records to them.
// It is safe for concurrent use.
type Writer struct {
	dir  string
	exts map[record.Bucket]string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // path → in-process append lock
}

// New returns a Writer for the bucket files described by cfg.
func New(cfg *config.Config) *Writer {
	return &Writer{
		dir: cfg.CapturesDir(),
		exts: map[record.Bucket]string{
			record.BucketText: cfg.TextFileType,
			record.BucketCode: cfg.CodeFileType,
		},
		locks: make(map[string]*sync.Mutex),
	}
}

// Dir returns the captures directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the bucket file for b.
func (w *Writer) Path(b record.Bucket) string {
	ext, ok := w.exts[b]
	if !ok {
		ext = w.exts[record.BucketText]
	}
	return filepath.Join(w.dir, BaseName+"."+ext)
}

// Paths returns every distinct bucket file, text first.
func (w *Writer) Paths() []string {
	text, code := w.Path(record.BucketText), w.Path(record.BucketCode)
	if text == code {
		return []string{text}
	}
	return []string{text, code}
}

// EnsureDir creates the captures directory and its parents. Safe to call
// repeatedly.
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("captures dir: %w", err)
	}
	return nil
}

// Append encodes rec for its bucket file and appends it with a single write.
// The data is synced before Append returns. Failures are not retried.
func (w *Writer) Append(rec record.Record) (string, error) {
	path := w.Path(rec.Kind.Bucket())

	data, err := record.Encode(rec, record.FormatFor(path))
	if err != nil {
		return path, err
	}
	if err := w.EnsureDir(); err != nil {
		return path, err
	}

	mu := w.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	fl := flock.New(lockPath(path))
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return path, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return path, fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	defer func() { _ = fl.Unlock() }()

	return path, appendFile(path, data)
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (w *Writer) pathLock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	mu, ok := w.locks[path]
	if !ok {
		mu = &sync.Mutex{}
		w.locks[path] = mu
	}
	return mu
}

// lockPath is the sidecar lock file guarding path across processes.
func lockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}
