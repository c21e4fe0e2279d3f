package action

import (
	"fmt"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/session"
)

// UploadFileAction is a TreeAction for putting a local file on the server
type UploadFileAction struct {
	LocalPath  string
	RemotePath string
	Mode       entity.TransferMode
}

// Command for uploading a file
func (a UploadFileAction) Command() string {
	return fmt.Sprintf(`put "%s" "%s"`, escape(a.LocalPath), escape(a.RemotePath))
}

// Perform the upload
func (a UploadFileAction) Perform(s *session.Session) error {
	return s.Put(a.LocalPath, a.RemotePath, a.Mode)
}

// Uniqueness is keyed on the remote path: a remote file is written once
func (a UploadFileAction) Uniqueness() string {
	return "put" + cmdSeparator + a.RemotePath
}

func (a UploadFileAction) String() string {
	return fmt.Sprintf(`upload file "%s" to "%s" (%v)`, a.LocalPath, a.RemotePath, a.Mode)
}

// DownloadFileAction is a TreeAction for getting a remote file into a local one
type DownloadFileAction struct {
	RemotePath string
	LocalPath  string
	Mode       entity.TransferMode
}

// Command for downloading a file
func (a DownloadFileAction) Command() string {
	return fmt.Sprintf(`get "%s" "%s"`, escape(a.RemotePath), escape(a.LocalPath))
}

// Perform the download
func (a DownloadFileAction) Perform(s *session.Session) error {
	return s.Get(a.LocalPath, a.RemotePath, a.Mode)
}

// Uniqueness is keyed on the local path
func (a DownloadFileAction) Uniqueness() string {
	return "get" + cmdSeparator + a.LocalPath
}

func (a DownloadFileAction) String() string {
	return fmt.Sprintf(`download file "%s" to "%s" (%v)`, a.RemotePath, a.LocalPath, a.Mode)
}
