package record

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// MaxLineSize bounds a single line when scanning a bucket file (16 MiB).
const MaxLineSize = 16 * 1024 * 1024

// ErrTruncated is returned when input ends inside an entry.
var ErrTruncated = errors.New("record: truncated entry")

type parseState int

const (
	stateOutside parseState = iota
	stateHeader
	stateBody
)

// ParseBlocks splits divider-framed block entries back into records.
// Content lines are returned verbatim; text that itself contains a divider
// line cannot be recovered.
func ParseBlocks(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	sc.Split(scanRawLines)

	var (
		out   []Record
		cur   Record
		body  []string
		state = stateOutside
		n     int
	)
	for sc.Scan() {
		n++
		ln := sc.Text()
		isDivider := strings.TrimRight(ln, "\r") == Divider

		switch state {
		case stateOutside:
			if isDivider {
				cur = Record{}
				body = body[:0]
				state = stateHeader
			}

		case stateHeader:
			trimmed := strings.TrimRight(ln, "\r")
			if trimmed == "" {
				if cur.Time.IsZero() || cur.Kind == "" {
					return out, fmt.Errorf("record: line %d: header missing TIMESTAMP or TYPE", n)
				}
				state = stateBody
				continue
			}
			key, val, ok := strings.Cut(trimmed, ": ")
			if !ok {
				return out, fmt.Errorf("record: line %d: malformed header %q", n, trimmed)
			}
			switch key {
			case "TIMESTAMP":
				ts, err := time.ParseInLocation(TimeLayout, val, time.Local)
				if err != nil {
					return out, fmt.Errorf("record: line %d: %w", n, err)
				}
				cur.Time = ts
			case "TYPE":
				cur.Kind = Kind(val)
			}

		case stateBody:
			if isDivider {
				cur.Text = strings.Join(body, "\n")
				out = append(out, cur)
				state = stateOutside
				continue
			}
			body = append(body, ln)
		}
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("record scan: %w", err)
	}
	if state != stateOutside {
		return out, ErrTruncated
	}
	return out, nil
}

// ParseLines decodes a JSON-line bucket file, skipping blank lines.
func ParseLines(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var out []Record
	for sc.Scan() {
		b := sc.Bytes()
		if len(strings.TrimSpace(string(b))) == 0 {
			continue
		}
		rec, err := ParseLine(b)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("record scan: %w", err)
	}
	return out, nil
}

// Parse reads every entry from r using the given format.
func Parse(r io.Reader, f Format) ([]Record, error) {
	if f == FormatJSONL {
		return ParseLines(r)
	}
	return ParseBlocks(r)
}

// scanRawLines is bufio.ScanLines without the carriage-return stripping, so
// CRLF text captured from the clipboard survives a round trip.
func scanRawLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
