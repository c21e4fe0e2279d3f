package entity

import "strings"

// ListingStyle is the raw listing dialect of a server, established once per session
type ListingStyle int

const (
	UnknownStyle ListingStyle = iota
	UnixStyle
	WindowsNTStyle
)

func (s ListingStyle) String() string {
	switch s {
	case UnixStyle:
		return "UNIX"
	case WindowsNTStyle:
		return "Windows_NT"
	default:
		return "unknown"
	}
}

// ListingStyleFromSystemType maps a SYST reply (e.g. "UNIX Type: L8") to a listing style
func ListingStyleFromSystemType(systemType string) ListingStyle {
	fields := strings.Fields(systemType)
	if len(fields) == 0 {
		return UnknownStyle
	}
	switch fields[0] {
	case "UNIX":
		return UnixStyle
	case "Windows_NT":
		return WindowsNTStyle
	default:
		return UnknownStyle
	}
}
