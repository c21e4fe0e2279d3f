package action

import (
	"strings"

	"github.com/m-manu/ftp-sidekick/session"
)

// TreeAction is one step of a tree operation: a single remote or local call on one entry
type TreeAction interface {
	// Command renders the action as an ftp client command
	Command() string
	// Perform runs the action on the session
	Perform(s *session.Session) error
	// Uniqueness should define a string that's unique with an action
	Uniqueness() string
	String() string
}

const cmdSeparator = "\u0001"

func escape(path string) string {
	escaped := path
	escaped = strings.ReplaceAll(escaped, "\\", "\\\\") // This replace should be first
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return escaped
}
