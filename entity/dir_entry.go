package entity

import "fmt"

// EntryKind is the type of object a listing line describes
type EntryKind int

const (
	Invalid EntryKind = iota
	File
	Directory
	Symlink
)

func (k EntryKind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	default:
		return "invalid"
	}
}

// DirEntry is one object as reported by a remote listing
type DirEntry struct {
	Kind EntryKind
	Size int64
	Name string
}

// InvalidEntry is what unparseable lines turn into
var InvalidEntry = DirEntry{Kind: Invalid}

func (d DirEntry) String() string {
	return fmt.Sprintf("{%v %q size: %d}", d.Kind, d.Name, d.Size)
}

// NamedType is the directory snapshot view of an entry: symlinks are folded into files
type NamedType struct {
	Name string
	Kind EntryKind
}

// IsDir returns true for directories
func (n NamedType) IsDir() bool {
	return n.Kind == Directory
}

func (n NamedType) String() string {
	if n.IsDir() {
		return n.Name + "/"
	}
	return n.Name
}
