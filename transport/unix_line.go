package transport

import (
	"fmt"
	"os"
	"time"

	"github.com/m-manu/ftp-sidekick/entity"
)

// UnixLine is the metadata needed to render one "ls -l" line
type UnixLine struct {
	Kind    entity.EntryKind
	Perm    os.FileMode
	Size    int64
	ModTime time.Time
	Name    string
	Target  string
	Owner   string
	Group   string
}

// FormatUnixLine renders an entry the way a UNIX server's LIST does, for transports
// that only hand out structured metadata
func FormatUnixLine(l UnixLine) string {
	typeFlag := "-"
	switch l.Kind {
	case entity.Directory:
		typeFlag = "d"
	case entity.Symlink:
		typeFlag = "l"
	}
	perm := l.Perm.Perm()
	if perm == 0 {
		perm = defaultPerm(l.Kind)
	}
	owner, group := l.Owner, l.Group
	if owner == "" {
		owner = "ftp"
	}
	if group == "" {
		group = "ftp"
	}
	name := l.Name
	if l.Kind == entity.Symlink && l.Target != "" {
		name += " -> " + l.Target
	}
	return fmt.Sprintf("%s%s %4d %-8s %-8s %8d %s %s",
		typeFlag, perm.String()[1:], 1, owner, group, l.Size, lsDate(l.ModTime), name)
}

func defaultPerm(kind entity.EntryKind) os.FileMode {
	switch kind {
	case entity.Directory:
		return 0755
	case entity.Symlink:
		return 0777
	}
	return 0644
}

func lsDate(t time.Time) string {
	if t.IsZero() {
		t = time.Unix(0, 0).UTC()
	}
	if t.Year() == time.Now().Year() {
		return t.Format("Jan _2 15:04")
	}
	return t.Format("Jan _2  2006")
}
