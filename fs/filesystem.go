package fs

import (
	"io"
	"io/fs"
	"time"
)

// FileSystem abstracts the local file system operations the tree operations need,
// so that tests can substitute failing or in-memory implementations.
type FileSystem interface {
	// Exists returns true if anything exists at path (symlinks are followed).
	Exists(path string) bool

	// IsReadableDirectory returns true if path is an existing, readable directory.
	IsReadableDirectory(path string) bool

	// Lstat returns file info without following symlinks.
	Lstat(path string) (FileInfo, error)

	// Mkdir creates a single directory.
	Mkdir(path string) error

	// MkdirAll creates a directory path and all parents that do not yet exist.
	MkdirAll(path string) error

	// ReadDirNames returns the names of the immediate children of dirPath, without "." and "..".
	ReadDirNames(dirPath string) ([]string, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Create creates or truncates a file for writing.
	Create(path string) (io.WriteCloser, error)

	// Remove deletes a file or an empty directory.
	Remove(path string) error
}

// FileInfo holds the subset of os.FileInfo fields we need.
type FileInfo struct {
	Name    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}
