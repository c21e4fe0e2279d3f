// Package sftpconn adapts github.com/pkg/sftp to transport.Conn, so the same session and
// tree operations run against SSH servers that have no FTP daemon.
package sftpconn

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// DefaultPort is the SSH port
const DefaultPort = 22

// SystemType is what SystemType reports: listings are always rendered UNIX style
const SystemType = "UNIX Type: L8"

// ClientConfigFunc builds the SSH client configuration for a login
type ClientConfigFunc func(endpoint transport.Endpoint, user, password string) (*ssh.ClientConfig, error)

// PasswordConfig authenticates with the password only and accepts any host key
func PasswordConfig(endpoint transport.Endpoint, user, password string) (*ssh.ClientConfig, error) {
	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         endpoint.Timeout,
	}, nil
}

// AddressFunc picks the host:port actually dialed for an endpoint, e.g. after resolving
// an ssh_config host alias
type AddressFunc func(endpoint transport.Endpoint) string

func endpointAddress(endpoint transport.Endpoint) string {
	return endpoint.Address()
}

// Dialer opens the TCP connection on Dial and runs the SSH handshake on Login,
// which is when the credentials are known
type Dialer struct {
	clientConfig ClientConfigFunc
	address      AddressFunc
}

// NewDialer defaults to PasswordConfig and to dialing the endpoint as given
func NewDialer(clientConfig ClientConfigFunc, address AddressFunc) *Dialer {
	if clientConfig == nil {
		clientConfig = PasswordConfig
	}
	if address == nil {
		address = endpointAddress
	}
	return &Dialer{clientConfig: clientConfig, address: address}
}

func (d *Dialer) DefaultPort() int {
	return DefaultPort
}

func (d *Dialer) Dial(ctx context.Context, endpoint transport.Endpoint) (transport.Conn, error) {
	address := d.address(endpoint)
	dialer := net.Dialer{Timeout: endpoint.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", address)
	}
	return &Conn{
		netConn:      netConn,
		endpoint:     endpoint,
		address:      address,
		clientConfig: d.clientConfig,
		cwd:          "/",
		options:      defaultOptions(endpoint.Timeout),
	}, nil
}

// Conn is a transport.Conn over one SFTP session. The working directory is tracked
// client side since SFTP has none.
type Conn struct {
	netConn      net.Conn
	endpoint     transport.Endpoint
	address      string // what was dialed; host keys are checked against it
	clientConfig ClientConfigFunc

	client    *sftp.Client
	sshClient *ssh.Client
	cwd       string
	options   map[transport.Option]any
}

// NewConn wraps an established SFTP client. sshClient may be nil, in which case Exec
// is unsupported.
func NewConn(client *sftp.Client, sshClient *ssh.Client) *Conn {
	c := &Conn{cwd: "/", options: defaultOptions(transport.DefaultTimeout)}
	c.attach(client, sshClient)
	return c
}

func defaultOptions(timeout time.Duration) map[transport.Option]any {
	return map[transport.Option]any{
		transport.OptionTimeout:  int(timeout / time.Second),
		transport.OptionAutoSeek: true,
	}
}

func (c *Conn) attach(client *sftp.Client, sshClient *ssh.Client) {
	c.client, c.sshClient = client, sshClient
	if wd, err := client.Getwd(); err == nil && wd != "" {
		c.cwd = wd
	}
}

// Login runs the SSH handshake and starts the sftp subsystem.
// On a Conn made by NewConn it does nothing.
func (c *Conn) Login(user, password string) error {
	if c.client != nil {
		return nil
	}
	config, err := c.clientConfig(c.endpoint, user, password)
	if err != nil {
		return err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(c.netConn, c.address, config)
	if err != nil {
		return errors.Wrap(err, "ssh handshake")
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return errors.Wrap(err, "start sftp subsystem")
	}
	c.attach(client, sshClient)
	return nil
}

func (c *Conn) SystemType() (string, error) {
	return SystemType, nil
}

func (c *Conn) resolve(p string) string {
	if !path.IsAbs(p) {
		p = path.Join(c.cwd, p)
	}
	return path.Clean(p)
}

func (c *Conn) RawList(p string) ([]string, error) {
	p = c.resolve(p)
	info, err := c.client.Lstat(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		return []string{c.line(path.Dir(p), info)}, nil
	}
	infos, err := c.client.ReadDir(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	lines := make([]string, 0, len(infos)+1)
	lines = append(lines, fmt.Sprintf("total %d", len(infos)))
	for _, info := range infos {
		lines = append(lines, c.line(p, info))
	}
	return lines, nil
}

// RawListRecursive walks p and lists every folder found, in walk order
func (c *Conn) RawListRecursive(p string) ([]string, error) {
	root := c.resolve(p)
	lines, err := c.RawList(root)
	if err != nil {
		return nil, err
	}
	walker := c.client.Walk(root)
	for walker.Step() {
		if walker.Err() != nil {
			return nil, errors.WithStack(walker.Err())
		}
		if walker.Path() == root || !walker.Stat().IsDir() {
			continue
		}
		sub, err := c.RawList(walker.Path())
		if err != nil {
			return nil, err
		}
		lines = append(lines, "", walker.Path()+":")
		lines = append(lines, sub...)
	}
	return lines, nil
}

func (c *Conn) line(dir string, info os.FileInfo) string {
	l := transport.UnixLine{
		Kind:    entity.File,
		Perm:    info.Mode().Perm(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Name:    info.Name(),
	}
	switch {
	case info.IsDir():
		l.Kind = entity.Directory
	case info.Mode()&os.ModeSymlink != 0:
		l.Kind = entity.Symlink
		if target, err := c.client.ReadLink(path.Join(dir, info.Name())); err == nil {
			l.Target = target
		}
	}
	if stat, ok := info.Sys().(*sftp.FileStat); ok {
		l.Owner = strconv.FormatUint(uint64(stat.UID), 10)
		l.Group = strconv.FormatUint(uint64(stat.GID), 10)
	}
	return transport.FormatUnixLine(l)
}

func (c *Conn) NameList(p string) ([]string, error) {
	infos, err := c.client.ReadDir(c.resolve(p))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

// Store writes r to p. SFTP transfers are always binary; mode is ignored.
func (c *Conn) Store(p string, r io.Reader, _ entity.TransferMode) error {
	f, err := c.client.Create(c.resolve(p))
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = io.Copy(f, r)
	closeErr := f.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(closeErr)
}

// Retrieve copies p into w; mode is ignored
func (c *Conn) Retrieve(p string, w io.Writer, _ entity.TransferMode) error {
	f, err := c.client.Open(c.resolve(p))
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return errors.WithStack(err)
}

func (c *Conn) MakeDir(p string) error {
	return errors.WithStack(c.client.Mkdir(c.resolve(p)))
}

func (c *Conn) RemoveDir(p string) error {
	return errors.WithStack(c.client.RemoveDirectory(c.resolve(p)))
}

// Delete removes a file; directories are refused like DELE does
func (c *Conn) Delete(p string) error {
	p = c.resolve(p)
	info, err := c.client.Lstat(p)
	if err != nil {
		return errors.WithStack(err)
	}
	if info.IsDir() {
		return errors.Errorf("%s: is a directory", p)
	}
	return errors.WithStack(c.client.Remove(p))
}

func (c *Conn) Rename(from, to string) error {
	return errors.WithStack(c.client.Rename(c.resolve(from), c.resolve(to)))
}

func (c *Conn) ChangeDir(p string) error {
	p = c.resolve(p)
	info, err := c.client.Stat(p)
	if err != nil {
		return errors.WithStack(err)
	}
	if !info.IsDir() {
		return errors.Errorf("%s: not a directory", p)
	}
	c.cwd = p
	return nil
}

func (c *Conn) ChangeDirToParent() error {
	c.cwd = path.Dir(c.cwd)
	return nil
}

func (c *Conn) CurrentDir() (string, error) {
	return c.cwd, nil
}

func (c *Conn) Chmod(p string, mode os.FileMode) error {
	return errors.WithStack(c.client.Chmod(c.resolve(p), mode))
}

func (c *Conn) FileSize(p string) (int64, error) {
	info, err := c.client.Stat(c.resolve(p))
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if info.IsDir() {
		return 0, errors.Errorf("%s: not a regular file", p)
	}
	return info.Size(), nil
}

func (c *Conn) ModTime(p string) (time.Time, error) {
	info, err := c.client.Stat(c.resolve(p))
	if err != nil {
		return time.Time{}, errors.WithStack(err)
	}
	return info.ModTime(), nil
}

func (c *Conn) Site(string) error {
	return transport.ErrUnsupported
}

// Exec runs command in a new SSH session and returns its combined output
func (c *Conn) Exec(command string) (string, error) {
	if c.sshClient == nil {
		return "", transport.ErrUnsupported
	}
	session, err := c.sshClient.NewSession()
	if err != nil {
		return "", errors.Wrap(err, "open ssh session")
	}
	defer session.Close()
	output, err := session.CombinedOutput(command)
	return string(output), errors.WithStack(err)
}

func (c *Conn) GetOption(option transport.Option) (any, error) {
	v, ok := c.options[option]
	if !ok {
		return nil, fmt.Errorf("unknown option %v", option)
	}
	return v, nil
}

func (c *Conn) SetOption(option transport.Option, value any) error {
	if _, ok := c.options[option]; !ok {
		return fmt.Errorf("unknown option %v", option)
	}
	c.options[option] = value
	return nil
}

// SetPassive does nothing: SFTP multiplexes data over the one connection
func (c *Conn) SetPassive(bool) error {
	return nil
}

func (c *Conn) Close() error {
	var err error
	if c.client != nil {
		err = c.client.Close()
	}
	if c.sshClient != nil {
		if closeErr := c.sshClient.Close(); err == nil {
			err = closeErr
		}
	} else if c.netConn != nil {
		if closeErr := c.netConn.Close(); err == nil {
			err = closeErr
		}
	}
	return errors.WithStack(err)
}
