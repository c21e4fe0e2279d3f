package listing

import "strings"

// State of the recursive listing parser
type State int

const (
	// ExpectEntryOrHeader is the normal state: data lines are entries, a blank line announces a header
	ExpectEntryOrHeader State = iota
	// ExpectHeader means the next line names the folder the following entries belong to
	ExpectHeader
)

func (s State) String() string {
	if s == ExpectHeader {
		return "expect-header"
	}
	return "expect-entry-or-header"
}

const recursiveFieldCount = 9

// RecursiveListing collects file and directory paths out of a recursive ("LIST -R") listing.
// Lines are fed one at a time; blocks after the first are each introduced by a blank line
// and a "folder:" header line.
type RecursiveListing struct {
	state         State
	currentFolder string
	files         []string
	dirs          []string
}

// NewRecursiveListing creates a parser whose first block belongs to root
func NewRecursiveListing(root string) *RecursiveListing {
	return &RecursiveListing{
		state:         ExpectEntryOrHeader,
		currentFolder: strings.TrimSuffix(root, "/"),
	}
}

// ParseRecursive feeds every line of a recursive listing of root
func ParseRecursive(root string, lines []string) *RecursiveListing {
	r := NewRecursiveListing(root)
	for _, line := range lines {
		r.Feed(line)
	}
	return r
}

// Feed consumes a single line
func (r *RecursiveListing) Feed(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		r.state = ExpectHeader
		return
	}
	if r.state == ExpectHeader {
		r.currentFolder = strings.TrimSuffix(line, ":")
		r.state = ExpectEntryOrHeader
		return
	}
	fields := splitFields(line, recursiveFieldCount)
	if len(fields) < recursiveFieldCount {
		return
	}
	name := fields[recursiveFieldCount-1]
	if name == "." || name == ".." {
		return
	}
	path := r.currentFolder + "/" + name
	if strings.HasPrefix(fields[0], "d") {
		r.dirs = append(r.dirs, path)
	} else {
		r.files = append(r.files, path)
	}
}

// State returns the current parser state
func (r *RecursiveListing) State() State {
	return r.state
}

// CurrentFolder is the folder data lines are currently attributed to
func (r *RecursiveListing) CurrentFolder() string {
	return r.currentFolder
}

// Files returns file paths in the order they were discovered
func (r *RecursiveListing) Files() []string {
	return r.files
}

// Dirs returns directory paths in the order they were discovered
func (r *RecursiveListing) Dirs() []string {
	return r.dirs
}

// splitFields splits on runs of spaces into at most n fields, the last one holding the remainder
func splitFields(line string, n int) []string {
	fields := make([]string, 0, n)
	rest := line
	for len(fields) < n-1 {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			return fields
		}
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return append(fields, rest)
		}
		fields = append(fields, rest[:i])
		rest = rest[i+1:]
	}
	rest = strings.TrimLeft(rest, " ")
	if rest != "" {
		fields = append(fields, rest)
	}
	return fields
}
