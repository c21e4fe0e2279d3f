package listing

import (
	"strings"
	"testing"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/stretchr/testify/assert"
)

func TestParseLineUnix(t *testing.T) {
	tests := []struct {
		line     string
		expected entity.DirEntry
	}{
		{
			"drwxr-xr-x    2 user group     4096 Jan 01 12:00 docs",
			entity.DirEntry{Kind: entity.Directory, Size: 4096, Name: "docs"},
		},
		{
			"-rw-r--r--    1 user group     1234 Jan 01 12:00 readme.txt",
			entity.DirEntry{Kind: entity.File, Size: 1234, Name: "readme.txt"},
		},
		{
			"-rw-r--r--    1 user group     1234 Jan 01  2023 my file.txt",
			entity.DirEntry{Kind: entity.File, Size: 1234, Name: "my file.txt"},
		},
		{
			"lrwxrwxrwx    1 user group       11 Jan 01 12:00 current -> releases/42",
			entity.DirEntry{Kind: entity.Symlink, Size: 11, Name: "current"},
		},
		{
			"lrwxrwxrwx    1 user group       11 Jan 01 12:00 dangling",
			entity.DirEntry{Kind: entity.Symlink, Size: 11, Name: "dangling"},
		},
		{
			"-rwsr-xr-x 1 root root 54256 Mar 26  2019 passwd",
			entity.DirEntry{Kind: entity.File, Size: 54256, Name: "passwd"},
		},
		{
			"drwxrwxrwt   12 root root     4096 Oct 18 20:39 tmp",
			entity.DirEntry{Kind: entity.Directory, Size: 4096, Name: "tmp"},
		},
		{
			"crw-rw-rw- 1 root root 1, 3 Jan 1 00:00 null",
			entity.InvalidEntry,
		},
		{
			"this is not a listing line",
			entity.InvalidEntry,
		},
		{
			"",
			entity.InvalidEntry,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLine(tt.line, entity.UnixStyle), "line: %q", tt.line)
	}
}

func TestParseLineWindows(t *testing.T) {
	dirPadding := strings.Repeat(" ", 10)
	tests := []struct {
		line     string
		expected entity.DirEntry
	}{
		{
			"01-02-06  03:04PM       <DIR>" + dirPadding + "docs",
			entity.DirEntry{Kind: entity.Directory, Name: "docs"},
		},
		{
			"10-20-2023  09:15       <DIR>" + dirPadding + "Program Files",
			entity.DirEntry{Kind: entity.Directory, Name: "Program Files"},
		},
		{
			"01-02-06  03:04PM                 1234 readme.txt",
			entity.DirEntry{Kind: entity.File, Size: 1234, Name: "readme.txt"},
		},
		{
			"01-02-06  11:59AM               987654 setup log.txt",
			entity.DirEntry{Kind: entity.File, Size: 987654, Name: "setup log.txt"},
		},
		{
			"Volume in drive C has no label",
			entity.InvalidEntry,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLine(tt.line, entity.WindowsNTStyle), "line: %q", tt.line)
	}
}

func TestParseLineTotalIsAlwaysInvalid(t *testing.T) {
	for _, style := range []entity.ListingStyle{entity.UnixStyle, entity.WindowsNTStyle, entity.UnknownStyle} {
		assert.Equal(t, entity.InvalidEntry, ParseLine("total 48", style), "style: %v", style)
		assert.Equal(t, entity.InvalidEntry, ParseLine("total", style), "style: %v", style)
	}
}

func TestParseLineUnknownStyle(t *testing.T) {
	line := "-rw-r--r--    1 user group     1234 Jan 01 12:00 readme.txt"
	assert.Equal(t, entity.InvalidEntry, ParseLine(line, entity.UnknownStyle))
}

// Navigation pointers are relabelled as files, not dropped
func TestParseLineDotEntriesAreFiles(t *testing.T) {
	tests := []struct {
		line  string
		style entity.ListingStyle
		name  string
	}{
		{"drwxr-xr-x    2 user group     4096 Jan 01 12:00 .", entity.UnixStyle, "."},
		{"drwxr-xr-x   14 user group     4096 Jan 01 12:00 ..", entity.UnixStyle, ".."},
		{"01-02-06  03:04PM       <DIR>" + strings.Repeat(" ", 10) + ".", entity.WindowsNTStyle, "."},
		{"01-02-06  03:04PM       <DIR>" + strings.Repeat(" ", 10) + "..", entity.WindowsNTStyle, ".."},
	}
	for _, tt := range tests {
		entry := ParseLine(tt.line, tt.style)
		assert.Equal(t, entity.File, entry.Kind, "line: %q", tt.line)
		assert.Equal(t, tt.name, entry.Name, "line: %q", tt.line)
	}
}
