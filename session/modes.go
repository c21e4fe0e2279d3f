package session

import (
	"regexp"
	"sort"
	"strings"

	set "github.com/deckarep/golang-set/v2"
	"github.com/m-manu/ftp-sidekick/entity"
)

// DefaultTextExtensions are the extensions transferred in text mode unless configured otherwise
var DefaultTextExtensions = []string{
	"asp", "bat", "c", "ccp", "csv", "h", "htm", "html", "shtml", "ini", "log",
	"php", "pl", "perl", "sh", "sql", "txt", "cgi", "lock", "json", "xml", "yml",
}

var fileExtension = regexp.MustCompile(`(?i)\.([a-z0-9]+)$`)

// ModeSelector picks a transfer mode from a file name
type ModeSelector struct {
	textExtensions set.Set[string]
}

// NewModeSelector creates a selector treating the given extensions (without dot) as text
func NewModeSelector(extensions ...string) *ModeSelector {
	m := &ModeSelector{textExtensions: set.NewSet[string]()}
	m.Add(extensions...)
	return m
}

// Add adds extensions to the text set
func (m *ModeSelector) Add(extensions ...string) {
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			m.textExtensions.Add(ext)
		}
	}
}

// Set replaces the text set
func (m *ModeSelector) Set(extensions ...string) {
	m.textExtensions.Clear()
	m.Add(extensions...)
}

// Extensions returns the text set, sorted
func (m *ModeSelector) Extensions() []string {
	exts := m.textExtensions.ToSlice()
	sort.Strings(exts)
	return exts
}

// ModeFor returns Text for files without extension or with a text extension, Binary otherwise
func (m *ModeSelector) ModeFor(filename string) entity.TransferMode {
	return m.Resolve(entity.Auto, filename, entity.Text)
}

// Resolve turns Auto into a concrete mode. Files without an extension get noExtension;
// explicit Text and Binary are returned unchanged.
func (m *ModeSelector) Resolve(mode entity.TransferMode, filename string, noExtension entity.TransferMode) entity.TransferMode {
	if mode != entity.Auto {
		return mode
	}
	match := fileExtension.FindStringSubmatch(filename)
	if match == nil {
		return noExtension
	}
	if m.textExtensions.Contains(strings.ToLower(match[1])) {
		return entity.Text
	}
	return entity.Binary
}
