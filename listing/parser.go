// Package listing turns raw, server-formatted directory listings into typed entries.
package listing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/m-manu/ftp-sidekick/entity"
)

var (
	unixLine      = regexp.MustCompile(`([-ld])[rwxst-]{9}.* ([0-9]*) [a-zA-Z]+ [0-9: ]*[0-9] (.+)`)
	unixLinkName  = regexp.MustCompile(`(.+) ->.*`)
	windowsDirRe  = regexp.MustCompile(`[-0-9]+ *[0-9:]+[PA]?M? +<DIR> {10}(.*)`)
	windowsFileRe = regexp.MustCompile(`[-0-9]+ *[0-9:]+[PA]?M? +([0-9]+) (.*)`)
)

// ParseLine converts one raw listing line into an entry.
// Lines that can't be understood in the given style come back as entity.Invalid.
// Entries named "." or ".." are reported as files.
func ParseLine(line string, style entity.ListingStyle) entity.DirEntry {
	if strings.HasPrefix(line, "total") {
		return entity.InvalidEntry
	}
	var entry entity.DirEntry
	switch style {
	case entity.WindowsNTStyle:
		entry = parseWindowsLine(line)
	case entity.UnixStyle:
		entry = parseUnixLine(line)
	default:
		return entity.InvalidEntry
	}
	if entry.Name == "." || entry.Name == ".." {
		entry.Kind = entity.File
	}
	return entry
}

func parseWindowsLine(line string) entity.DirEntry {
	if m := windowsDirRe.FindStringSubmatch(line); m != nil {
		return entity.DirEntry{Kind: entity.Directory, Name: m[1]}
	}
	if m := windowsFileRe.FindStringSubmatch(line); m != nil {
		return entity.DirEntry{Kind: entity.File, Size: parseSize(m[1]), Name: m[2]}
	}
	return entity.InvalidEntry
}

func parseUnixLine(line string) entity.DirEntry {
	m := unixLine.FindStringSubmatch(line)
	if m == nil {
		return entity.InvalidEntry
	}
	entry := entity.DirEntry{Kind: entity.File, Size: parseSize(m[2]), Name: m[3]}
	switch m[1] {
	case "d":
		entry.Kind = entity.Directory
	case "l":
		entry.Kind = entity.Symlink
		if lm := unixLinkName.FindStringSubmatch(entry.Name); lm != nil {
			entry.Name = lm[1]
		}
	}
	return entry
}

func parseSize(s string) int64 {
	size, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return size
}
