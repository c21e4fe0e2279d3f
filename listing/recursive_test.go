package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecursive(t *testing.T) {
	lines := []string{
		"-rw-r--r--    1 user group       10 Jan 01 12:00 f1",
		"drwxr-xr-x    2 user group     4096 Jan 01 12:00 b",
		"drwxr-xr-x    2 user group     4096 Jan 01 12:00 .",
		"drwxr-xr-x    2 user group     4096 Jan 01 12:00 ..",
		"",
		"/a/b:",
		"-rw-r--r--    1 user group       20 Jan 01 12:00 f2",
		"drwxr-xr-x    2 user group     4096 Jan 01 12:00 c",
		"",
		"/a/b/c:",
		"-rw-r--r--    1 user group       30 Jan 01 12:00 with space.txt",
	}
	r := ParseRecursive("/a", lines)
	assert.Equal(t, []string{"/a/f1", "/a/b/f2", "/a/b/c/with space.txt"}, r.Files())
	assert.Equal(t, []string{"/a/b", "/a/b/c"}, r.Dirs())
	assert.Equal(t, "/a/b/c", r.CurrentFolder())
	assert.Equal(t, ExpectEntryOrHeader, r.State())
}

func TestRecursiveListingStates(t *testing.T) {
	r := NewRecursiveListing("/root/")
	assert.Equal(t, "/root", r.CurrentFolder())
	assert.Equal(t, ExpectEntryOrHeader, r.State())

	r.Feed("")
	assert.Equal(t, ExpectHeader, r.State())

	// header line is consumed, never treated as data
	r.Feed("drwxr-xr-x    2 user group     4096 Jan 01 12:00 x:")
	assert.Equal(t, ExpectEntryOrHeader, r.State())
	assert.Equal(t, "drwxr-xr-x    2 user group     4096 Jan 01 12:00 x", r.CurrentFolder())
	assert.Empty(t, r.Dirs())

	r.Feed("total 8")
	r.Feed("-rw-r--r-- 1 u g 1 Jan 01 12:00")
	assert.Empty(t, r.Files())
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{"a b c", []string{"a", "b", "c"}},
		{"  a   b  ", []string{"a", "b"}},
		{"1 2 3 4 5 6 7 8 9 10 11", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9 10 11"}},
		{"1 2 3 4 5 6 7 8   nine  spaced", []string{"1", "2", "3", "4", "5", "6", "7", "8", "nine  spaced"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, splitFields(tt.line, 9), "line: %q", tt.line)
	}
}
