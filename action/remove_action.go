package action

import (
	"fmt"

	"github.com/m-manu/ftp-sidekick/session"
)

// DeleteFileAction is a TreeAction for deleting a remote file
type DeleteFileAction struct {
	RemotePath string
}

func (a DeleteFileAction) Command() string {
	return fmt.Sprintf(`delete "%s"`, escape(a.RemotePath))
}

func (a DeleteFileAction) Perform(s *session.Session) error {
	return s.Delete(a.RemotePath)
}

func (a DeleteFileAction) Uniqueness() string {
	return "delete" + cmdSeparator + a.RemotePath
}

func (a DeleteFileAction) String() string {
	return fmt.Sprintf(`delete remote file "%s"`, a.RemotePath)
}

// RemoveDirectoryAction is a TreeAction for removing an empty remote directory
type RemoveDirectoryAction struct {
	RemotePath string
}

func (a RemoveDirectoryAction) Command() string {
	return fmt.Sprintf(`rmdir "%s"`, escape(a.RemotePath))
}

func (a RemoveDirectoryAction) Perform(s *session.Session) error {
	return s.Rmdir(a.RemotePath)
}

func (a RemoveDirectoryAction) Uniqueness() string {
	return "rmdir" + cmdSeparator + a.RemotePath
}

func (a RemoveDirectoryAction) String() string {
	return fmt.Sprintf(`remove remote directory "%s"`, a.RemotePath)
}
