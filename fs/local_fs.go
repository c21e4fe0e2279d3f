package fs

import (
	"io"
	"os"
)

// LocalFS implements FileSystem using standard os.* calls.
type LocalFS struct{}

// NewLocalFS returns a new LocalFS.
func NewLocalFS() *LocalFS {
	return &LocalFS{}
}

func (l *LocalFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (l *LocalFS) IsReadableDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (l *LocalFS) Lstat(path string) (FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fileInfoFromOS(info), nil
}

func (l *LocalFS) Mkdir(path string) error {
	return os.Mkdir(path, os.ModePerm)
}

func (l *LocalFS) MkdirAll(path string) error {
	return os.MkdirAll(path, os.ModeDir|os.ModePerm)
}

// ReadDirNames lists children sorted by name
func (l *LocalFS) ReadDirNames(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name() == "." || e.Name() == ".." {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (l *LocalFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (l *LocalFS) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (l *LocalFS) Remove(path string) error {
	return os.Remove(path)
}

func fileInfoFromOS(info os.FileInfo) FileInfo {
	return FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}
