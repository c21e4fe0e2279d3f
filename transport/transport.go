// Package transport defines the capability the session talks to: one request/response
// call per logical remote operation. Adapters for FTP and SFTP live in subpackages.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/m-manu/ftp-sidekick/entity"
)

// DefaultTimeout is used when an endpoint has no timeout set
const DefaultTimeout = 30 * time.Second

// ErrUnsupported is returned for commands a transport cannot express
var ErrUnsupported = errors.New("command not supported by this transport")

// Endpoint is where to connect to
type Endpoint struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Address returns host:port
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Dialer opens control connections
type Dialer interface {
	// Dial establishes a connection; the returned Conn is not yet authenticated.
	Dial(ctx context.Context, endpoint Endpoint) (Conn, error)
	// DefaultPort is used when the caller gives none.
	DefaultPort() int
}

// Option is a session option that can be read and changed while connected
type Option int

const (
	OptionTimeout Option = iota + 1
	OptionAutoSeek
	OptionUsePasvAddress
)

func (o Option) String() string {
	switch o {
	case OptionTimeout:
		return "timeout"
	case OptionAutoSeek:
		return "autoseek"
	case OptionUsePasvAddress:
		return "usepasvaddress"
	}
	return fmt.Sprintf("option(%d)", int(o))
}

// ParseOption parses an option name as printed by Option.String
func ParseOption(s string) (Option, error) {
	for _, o := range []Option{OptionTimeout, OptionAutoSeek, OptionUsePasvAddress} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown option %q", s)
}

// Conn is a live, single-threaded control connection.
// Errors returned by its methods carry the server's diagnostic text.
type Conn interface {
	Login(user, password string) error
	SystemType() (string, error)

	RawList(path string) ([]string, error)
	// RawListRecursive returns a "LIST -R" style listing: the root block first, then
	// one block per folder, each introduced by a blank line and a "folder:" header.
	RawListRecursive(path string) ([]string, error)
	NameList(path string) ([]string, error)

	Store(path string, r io.Reader, mode entity.TransferMode) error
	Retrieve(path string, w io.Writer, mode entity.TransferMode) error

	MakeDir(path string) error
	RemoveDir(path string) error
	Delete(path string) error
	Rename(from, to string) error
	ChangeDir(path string) error
	ChangeDirToParent() error
	CurrentDir() (string, error)
	Chmod(path string, mode os.FileMode) error
	FileSize(path string) (int64, error)
	ModTime(path string) (time.Time, error)

	Site(command string) error
	Exec(command string) (string, error)
	GetOption(option Option) (any, error)
	SetOption(option Option, value any) error
	SetPassive(passive bool) error

	Close() error
}
