package session

import (
	"fmt"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/listing"
	"github.com/m-manu/ftp-sidekick/transport"
)

// DirList is the directory snapshot of dir: files (symlinks included) and directories,
// in the order the server listed them. Lines that can't be parsed are dropped.
func (s *Session) DirList(dir string) ([]entity.NamedType, error) {
	entries, err := s.entries("DirList", dir)
	if err != nil {
		return nil, err
	}
	named := make([]entity.NamedType, 0, len(entries))
	for _, e := range entries {
		kind := entity.File
		if e.Kind == entity.Directory {
			kind = entity.Directory
		}
		named = append(named, entity.NamedType{Name: e.Name, Kind: kind})
	}
	return named, nil
}

// Entries is like DirList but keeps sizes and symlinks
func (s *Session) Entries(dir string) ([]entity.DirEntry, error) {
	return s.entries("Entries", dir)
}

func (s *Session) entries(op, dir string) ([]entity.DirEntry, error) {
	var lines []string
	s.Trace(op, fmt.Sprintf("retrieving raw list for folder '%s'", dir))
	err := s.do(op, ListingError, "could not get rawlist", func(conn transport.Conn) error {
		var err error
		lines, err = conn.RawList(dir)
		return err
	})
	if err != nil {
		return nil, err
	}
	entries := make([]entity.DirEntry, 0, len(lines))
	for _, line := range lines {
		entry := listing.ParseLine(line, s.style)
		if entry.Kind == entity.Invalid {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// NList returns the bare names in dir
func (s *Session) NList(dir string) ([]string, error) {
	const op = "NList"
	var names []string
	s.Trace(op, fmt.Sprintf("retrieving name list for folder '%s'", dir))
	err := s.do(op, ListingError, "could not get directory list from server", func(conn transport.Conn) error {
		var err error
		names, err = conn.NameList(dir)
		return err
	})
	return names, err
}

// RawListRecursive returns the raw recursive listing of dir
func (s *Session) RawListRecursive(dir string) ([]string, error) {
	const op = "RawListRecursive"
	var lines []string
	s.Trace(op, fmt.Sprintf("retrieving recursive raw list for folder '%s'", dir))
	err := s.do(op, ListingError, "unable to get raw list", func(conn transport.Conn) error {
		var err error
		lines, err = conn.RawListRecursive(dir)
		return err
	})
	return lines, err
}
