package session

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/transport"
)

// Put uploads the local file to remote. Auto mode is resolved from the local name;
// files without an extension go in text mode.
func (s *Session) Put(local, remote string, mode entity.TransferMode) error {
	const op = "Put"
	if err := s.Precondition(op); err != nil {
		return err
	}
	if !s.local.Exists(local) {
		e := NewError(LocalIOError, op, fmt.Sprintf("local file '%s' does not exist", local), nil)
		s.Trace(op, e.Error())
		return e
	}
	mode = s.modes.Resolve(mode, local, entity.Text)
	f, err := s.local.Open(local)
	if err != nil {
		return NewError(LocalIOError, op, fmt.Sprintf("could not open local file '%s'", local), err)
	}
	defer f.Close()
	s.Trace(op, fmt.Sprintf("uploading file '%s' to '%s' in %v mode", local, remote, mode))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not put file (%s) on server", local),
		func(conn transport.Conn) error {
			return conn.Store(remote, f, mode)
		})
}

// PutStream uploads everything read from r to remote. Auto mode is resolved from the
// remote name; names without an extension go in binary mode.
func (s *Session) PutStream(r io.Reader, remote string, mode entity.TransferMode) error {
	const op = "PutStream"
	mode = s.modes.Resolve(mode, remote, entity.Binary)
	s.Trace(op, fmt.Sprintf("uploading stream to '%s' in %v mode", remote, mode))
	return s.do(op, RemoteOperationError, "could not put file on server", func(conn transport.Conn) error {
		return conn.Store(remote, r, mode)
	})
}

// Get downloads remote into the local file. Auto mode is resolved from the remote name;
// files without an extension come in text mode. A failed download leaves no local file behind.
func (s *Session) Get(local, remote string, mode entity.TransferMode) error {
	const op = "Get"
	if err := s.Precondition(op); err != nil {
		return err
	}
	mode = s.modes.Resolve(mode, remote, entity.Text)
	f, err := s.local.Create(local)
	if err != nil {
		e := NewError(LocalIOError, op, fmt.Sprintf("could not create local file '%s'", local), err)
		s.Trace(op, e.Error())
		return e
	}
	s.Trace(op, fmt.Sprintf("downloading file '%s' to '%s' in %v mode", remote, local, mode))
	err = s.do(op, RemoteOperationError, "could not get file from server", func(conn transport.Conn) error {
		return conn.Retrieve(remote, f, mode)
	})
	closeErr := f.Close()
	if err != nil {
		_ = s.local.Remove(local)
		return err
	}
	if closeErr != nil {
		return NewError(LocalIOError, op, fmt.Sprintf("could not write local file '%s'", local), closeErr)
	}
	return nil
}

// GetStream downloads remote into w. Auto mode is resolved from the remote name;
// names without an extension come in binary mode.
func (s *Session) GetStream(w io.Writer, remote string, mode entity.TransferMode) error {
	const op = "GetStream"
	mode = s.modes.Resolve(mode, remote, entity.Binary)
	s.Trace(op, fmt.Sprintf("downloading '%s' to stream in %v mode", remote, mode))
	return s.do(op, RemoteOperationError, "could not get file from server", func(conn transport.Conn) error {
		return conn.Retrieve(remote, w, mode)
	})
}

func (s *Session) Mkdir(dir string) error {
	const op = "Mkdir"
	s.Trace(op, fmt.Sprintf("creating remote directory '%s'", dir))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not create remote directory '%s'", dir),
		func(conn transport.Conn) error {
			return conn.MakeDir(dir)
		})
}

func (s *Session) ChDir(dir string) error {
	const op = "ChDir"
	s.Trace(op, fmt.Sprintf("changing directory to '%s'", dir))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not change the directory to '%s'", dir),
		func(conn transport.Conn) error {
			return conn.ChangeDir(dir)
		})
}

func (s *Session) CdUp() error {
	const op = "CdUp"
	s.Trace(op, "changing to parent directory")
	return s.do(op, RemoteOperationError, "could not change the directory", func(conn transport.Conn) error {
		return conn.ChangeDirToParent()
	})
}

// Chmod changes permissions, falling back to "SITE CHMOD" when the transport can't
func (s *Session) Chmod(mode os.FileMode, file string) error {
	const op = "Chmod"
	perm := mode.Perm()
	s.Trace(op, fmt.Sprintf("changing the mode of '%s' to '%o'", file, perm))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not change the mode of '%s' to '%o'", file, perm),
		func(conn transport.Conn) error {
			err := conn.Chmod(file, perm)
			if err == nil {
				return nil
			}
			s.Trace(op, fmt.Sprintf("could not change the mode. trying with the SITE command (%v)", err))
			return conn.Site(fmt.Sprintf("CHMOD %o %s", perm, file))
		})
}

func (s *Session) Pwd() (string, error) {
	const op = "Pwd"
	var dir string
	err := s.do(op, RemoteOperationError, "could not get working directory", func(conn transport.Conn) error {
		var err error
		dir, err = conn.CurrentDir()
		return err
	})
	return dir, err
}

func (s *Session) Rename(from, to string) error {
	const op = "Rename"
	s.Trace(op, fmt.Sprintf("renaming '%s' to '%s'", from, to))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not rename '%s' to '%s'", from, to),
		func(conn transport.Conn) error {
			return conn.Rename(from, to)
		})
}

// Rmdir removes an empty remote directory. Recursive removal is a tree operation.
func (s *Session) Rmdir(dir string) error {
	const op = "Rmdir"
	s.Trace(op, fmt.Sprintf("deleting folder '%s'", dir))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not remove the folder '%s'", dir),
		func(conn transport.Conn) error {
			return conn.RemoveDir(dir)
		})
}

func (s *Session) Delete(file string) error {
	const op = "Delete"
	s.Trace(op, fmt.Sprintf("deleting file '%s'", file))
	return s.do(op, RemoteOperationError, fmt.Sprintf("could not delete the file '%s'", file),
		func(conn transport.Conn) error {
			return conn.Delete(file)
		})
}

// Size returns the size of a remote file in bytes
func (s *Session) Size(file string) (int64, error) {
	const op = "Size"
	var size int64
	err := s.do(op, RemoteOperationError, fmt.Sprintf("could not get size of '%s'", file),
		func(conn transport.Conn) error {
			var err error
			size, err = conn.FileSize(file)
			return err
		})
	return size, err
}

// Mdtm returns the last modification time of a remote file
func (s *Session) Mdtm(file string) (time.Time, error) {
	const op = "Mdtm"
	var modTime time.Time
	err := s.do(op, RemoteOperationError, fmt.Sprintf("could not get last modification date from '%s'", file),
		func(conn transport.Conn) error {
			var err error
			modTime, err = conn.ModTime(file)
			return err
		})
	return modTime, err
}

// Site sends a SITE command verbatim
func (s *Session) Site(command string) error {
	const op = "Site"
	s.Trace(op, fmt.Sprintf("executing SITE '%s'", command))
	return s.do(op, RemoteOperationError, "could not execute the command", func(conn transport.Conn) error {
		return conn.Site(command)
	})
}

// Exec runs a command on the server and returns its output
func (s *Session) Exec(command string) (string, error) {
	const op = "Exec"
	var output string
	s.Trace(op, fmt.Sprintf("executing '%s'", command))
	err := s.do(op, RemoteOperationError, "could not execute the command", func(conn transport.Conn) error {
		var err error
		output, err = conn.Exec(command)
		return err
	})
	return output, err
}

func (s *Session) GetOption(option transport.Option) (any, error) {
	const op = "GetOption"
	var value any
	s.Trace(op, fmt.Sprintf("getting option '%v' from server", option))
	err := s.do(op, RemoteOperationError, "could not get option from server", func(conn transport.Conn) error {
		var err error
		value, err = conn.GetOption(option)
		return err
	})
	return value, err
}

func (s *Session) SetOption(option transport.Option, value any) error {
	const op = "SetOption"
	s.Trace(op, fmt.Sprintf("setting option '%v' to '%v'", option, value))
	return s.do(op, RemoteOperationError, "could not set option on server", func(conn transport.Conn) error {
		return conn.SetOption(option, value)
	})
}

// Pasv switches passive mode on or off; asking for the current mode does nothing
func (s *Session) Pasv(on bool) error {
	const op = "Pasv"
	if err := s.Precondition(op); err != nil {
		return err
	}
	if on {
		s.Trace(op, "enabling passive mode")
	} else {
		s.Trace(op, "disabling passive mode")
	}
	if on == s.passive {
		s.Trace(op, "nothing to do")
		return nil
	}
	err := s.do(op, RemoteOperationError, "could not switch mode", func(conn transport.Conn) error {
		return conn.SetPassive(on)
	})
	if err == nil {
		s.passive = on
	}
	return err
}

// Close ends the session. The handle is dropped even when the server complains.
func (s *Session) Close() error {
	const op = "Close"
	s.Trace(op, "closing connection")
	err := s.do(op, RemoteOperationError, "could not close the connection", func(conn transport.Conn) error {
		return conn.Close()
	})
	if KindOf(err) != SessionError {
		s.conn = nil
	}
	return err
}
