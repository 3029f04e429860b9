// Package classify tags captured clipboard text with a content kind.
package classify

import (
	"regexp"
	"strings"

	"go.klb.dev/notd/internal/record"
)

// commandPrefixes are matched case-sensitively against the trimmed text.
var commandPrefixes = []string{
	"git ", "cd ", "ls ", "dir ", "npm ", "pnpm ", "yarn ",
	"python ", "pip ", "pwsh ", "powershell ", "curl ", "docker ",
}

var urlPrefixes = []string{"http://", "https://", "www."}

var errorMarkers = []string{"Exception", "Traceback", "Error", "ERR_", "FATAL"}

// codeRe matches a fenced block marker anywhere, or a declaration keyword at
// the start of any line (leading whitespace allowed). Whitespace and the word
// boundary are Unicode-aware: RE2's \s and \b only know ASCII.
var codeRe = regexp.MustCompile("(?m)```|^[\\s\\p{Z}]*(?:function|class|def|import|using|#include)(?:[^\\p{L}\\p{N}_]|$)")

// Classify returns the kind of text. Rules are evaluated in priority order
// (url, command, code, error) and the first match wins; anything else is
// plain text.
func Classify(text string) record.Kind {
	s := strings.TrimSpace(text)

	if hasAnyPrefix(s, urlPrefixes) {
		return record.KindURL
	}
	if hasAnyPrefix(s, commandPrefixes) {
		return record.KindCommand
	}
	if codeRe.MatchString(s) {
		return record.KindCode
	}
	for _, m := range errorMarkers {
		if strings.Contains(s, m) {
			return record.KindError
		}
	}
	return record.KindText
}

// KindFor returns Classify(text) when enabled, or the fixed capture kind.
func KindFor(text string, enabled bool) record.Kind {
	if !enabled {
		return record.KindCapture
	}
	return Classify(text)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
