// Package record defines the capture log entry and its two on-disk encodings.
//
// The default encoding is a human-readable block framed by divider lines:
//
//	━━━━━━━━━━━━━━━━━━━━━━━━━━
//	PROJECT: notd
//	OWNER: Deze Tingz
//	TIMESTAMP: 2026-01-02 15:04:05
//	TYPE: url
//
//	https://example.com
//	━━━━━━━━━━━━━━━━━━━━━━━━━━
//
// The alternate encoding is one JSON object per line and is selected purely
// by a ".jsonl" file extension. User text is never escaped in block mode.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind is the content classification tag written with every entry.
type Kind string

const (
	KindURL     Kind = "url"
	KindCommand Kind = "command"
	KindCode    Kind = "code"
	KindError   Kind = "error"
	KindText    Kind = "text"
	KindCapture Kind = "capture" // classification disabled
)

// Bucket selects the destination file for an entry.
type Bucket string

const (
	BucketText Bucket = "text"
	BucketCode Bucket = "code"
)

// Bucket returns the destination bucket for k: code goes to the code
// bucket, everything else to the text bucket.
func (k Kind) Bucket() Bucket {
	if k == KindCode {
		return BucketCode
	}
	return BucketText
}

const (
	Project = "notd"
	Owner   = "Deze Tingz"

	// TimeLayout is the block-mode timestamp layout.
	TimeLayout = "2006-01-02 15:04:05"
	// LineTimeLayout is the JSON-line timestamp layout (ISO-8601, seconds).
	LineTimeLayout = "2006-01-02T15:04:05"

	dividerWidth = 26
)

// Divider opens and closes every block entry.
var Divider = strings.Repeat("━", dividerWidth)

// Record is one capture, created per trigger and consumed by the writer.
type Record struct {
	Text string
	Kind Kind
	Time time.Time
}

// Format selects an on-disk encoding.
type Format int

const (
	FormatDivided Format = iota
	FormatJSONL
)

func (f Format) String() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "block"
}

// FormatFor returns the encoding implied by a bucket file name.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatDivided
}

// Encode serialises rec in the given format. The result is always one
// complete, self-delimited entry ready for a single append.
func Encode(rec Record, f Format) ([]byte, error) {
	if f == FormatJSONL {
		return FormatLine(rec)
	}
	return []byte(FormatBlock(rec)), nil
}

// FormatBlock renders rec as a divider-framed block.
func FormatBlock(rec Record) string {
	var b strings.Builder
	b.Grow(len(rec.Text) + 160)
	b.WriteString(Divider)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "PROJECT: %s\n", Project)
	fmt.Fprintf(&b, "OWNER: %s\n", Owner)
	fmt.Fprintf(&b, "TIMESTAMP: %s\n", rec.Time.Format(TimeLayout))
	fmt.Fprintf(&b, "TYPE: %s\n", rec.Kind)
	b.WriteByte('\n')
	b.WriteString(rec.Text)
	b.WriteByte('\n')
	b.WriteString(Divider)
	b.WriteByte('\n')
	return b.String()
}

// line is the JSON-line wire shape.
type line struct {
	Timestamp string `json:"timestamp"`
	Type      Kind   `json:"type"`
	Content   string `json:"content"`
}

// FormatLine renders rec as a single JSON object followed by a newline.
// Content is stored verbatim: <, > and & are not HTML-escaped.
func FormatLine(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(line{
		Timestamp: rec.Time.Format(LineTimeLayout),
		Type:      rec.Kind,
		Content:   rec.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("record encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseLine decodes one JSON-line entry. Timestamps are read in local time.
func ParseLine(b []byte) (Record, error) {
	var l line
	if err := json.Unmarshal(b, &l); err != nil {
		return Record{}, fmt.Errorf("record decode: %w", err)
	}
	ts, err := time.ParseInLocation(LineTimeLayout, l.Timestamp, time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("record timestamp: %w", err)
	}
	return Record{Text: l.Content, Kind: l.Type, Time: ts}, nil
}
