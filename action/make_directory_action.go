package action

import (
	"fmt"

	"github.com/m-manu/ftp-sidekick/session"
)

// MakeDirectoryAction is a TreeAction for creating a directory, on the server or,
// when Local is set, on the local file system
type MakeDirectoryAction struct {
	Path  string
	Local bool
}

// Command for creating a directory
func (a MakeDirectoryAction) Command() string {
	if a.Local {
		return fmt.Sprintf(`lmkdir "%s"`, escape(a.Path))
	}
	return fmt.Sprintf(`mkdir "%s"`, escape(a.Path))
}

// Perform the 'create directory' action
func (a MakeDirectoryAction) Perform(s *session.Session) error {
	if a.Local {
		return s.LocalFS().Mkdir(a.Path)
	}
	return s.Mkdir(a.Path)
}

// Uniqueness generates unique string for directory creation
func (a MakeDirectoryAction) Uniqueness() string {
	if a.Local {
		return "lmkdir" + cmdSeparator + a.Path
	}
	return "mkdir" + cmdSeparator + a.Path
}

func (a MakeDirectoryAction) String() string {
	if a.Local {
		return fmt.Sprintf(`create local directory "%s"`, a.Path)
	}
	return fmt.Sprintf(`create remote directory "%s"`, a.Path)
}
