package entity

import (
	"fmt"
	"strings"
)

// TransferMode is how file content travels: Auto is resolved to Text or Binary before any transfer
type TransferMode int

const (
	Auto TransferMode = iota
	Text
	Binary
)

func (m TransferMode) String() string {
	switch m {
	case Text:
		return "text"
	case Binary:
		return "binary"
	default:
		return "auto"
	}
}

// ParseTransferMode parses a mode as given on the command line
func ParseTransferMode(s string) (TransferMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "text", "ascii", "a":
		return Text, nil
	case "binary", "image", "i":
		return Binary, nil
	}
	return Auto, fmt.Errorf("invalid transfer mode %q (expected one of auto, text, binary)", s)
}
