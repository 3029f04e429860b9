package clip

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	text  string
	err   error
	delay time.Duration
	panic bool
}

func (f fakeBackend) Name() string { return "fake" }

func (f fakeBackend) ReadText() (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panic {
		panic("boom")
	}
	return f.text, f.err
}

func TestReadText_Truncates(t *testing.T) {
	long := strings.Repeat("a", 50)
	assert.Equal(t, strings.Repeat("a", 10), ReadText(fakeBackend{text: long}, 10))
	assert.Equal(t, long, ReadText(fakeBackend{text: long}, 50))
	assert.Equal(t, long, ReadText(fakeBackend{text: long}, 51))
}

func TestReadText_CountsRunesNotBytes(t *testing.T) {
	got := ReadText(fakeBackend{text: "héllo wörld 🌍!"}, 13)
	assert.Equal(t, "héllo wörld 🌍", got)
	assert.Len(t, []rune(got), 13)
}

func TestReadText_EmptyOnFailure(t *testing.T) {
	assert.Equal(t, "", ReadText(fakeBackend{}, 10))
	assert.Equal(t, "", ReadText(fakeBackend{text: "partial", err: errors.New("locked")}, 10))
	assert.Equal(t, "", ReadText(fakeBackend{panic: true}, 10))
	assert.Equal(t, "", ReadText(headlessBackend{}, 10))
}

func TestReadTextTimeout_Unresponsive(t *testing.T) {
	start := time.Now()
	got := ReadTextTimeout(fakeBackend{text: "late", delay: 500 * time.Millisecond}, 10, 20*time.Millisecond)
	assert.Equal(t, "", got)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"", 5, ""},
		{"abc", 0, ""},
		{"abc", 3, "abc"},
		{"abcdef", 3, "abc"},
		{"日本語テキスト", 3, "日本語"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Truncate(tc.in, tc.n), "Truncate(%q, %d)", tc.in, tc.n)
	}
}
