// Package ftpconn adapts github.com/jlaffaye/ftp to transport.Conn.
//
// The library covers logins, transfers and file commands. SYST, SITE and the raw LIST
// text go over the same control connection through a small textproto client, which is
// only possible while that connection is plaintext. Over explicit TLS, RawList renders
// the library's parsed entries back into UNIX "ls -l" lines, SystemType reports a UNIX
// server to match, and SITE returns transport.ErrUnsupported.
package ftpconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/pkg/errors"
)

// DefaultPort is the FTP control port
const DefaultPort = 21

// SystemType is what SystemType reports when SYST can't be sent; it describes the
// rendered listings
const SystemType = "UNIX Type: L8"

// Config tunes how connections are dialed
type Config struct {
	// ExplicitTLS upgrades the control connection with AUTH TLS
	ExplicitTLS bool
	TLSConfig   *tls.Config
	DisableEPSV bool
	// DebugOutput, when set, receives the raw control-connection dialogue
	DebugOutput io.Writer
}

// Dialer dials FTP servers
type Dialer struct {
	config Config
}

func NewDialer(config Config) *Dialer {
	return &Dialer{config: config}
}

func (d *Dialer) DefaultPort() int {
	return DefaultPort
}

// Dial connects to endpoint; Login is left to the caller
func (d *Dialer) Dial(ctx context.Context, endpoint transport.Endpoint) (transport.Conn, error) {
	timeout := endpoint.Timeout
	if timeout == 0 {
		timeout = transport.DefaultTimeout
	}
	netDialer := net.Dialer{Timeout: timeout}
	netConn, err := netDialer.DialContext(ctx, "tcp", endpoint.Address())
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", endpoint.Address())
	}
	// bounds the greeting and, for FTPS, the AUTH TLS exchange
	_ = netConn.SetDeadline(time.Now().Add(timeout))
	c, err := ftp.Dial(endpoint.Address(), d.dialOptions(netConn, endpoint.Host, timeout)...)
	if err != nil {
		_ = netConn.Close()
		return nil, errors.Wrapf(err, "dial %s", endpoint.Address())
	}
	_ = netConn.SetDeadline(time.Time{})
	conn := NewConn(c, timeout)
	if !d.config.ExplicitTLS {
		conn.ctl = newControl(netConn, timeout, d.config.DisableEPSV, d.config.DebugOutput)
	}
	return conn, nil
}

// dialOptions hands the library an already dialed control connection; data connections
// are dialed by the library with the same timeout
func (d *Dialer) dialOptions(netConn net.Conn, host string, timeout time.Duration) []ftp.DialOption {
	options := []ftp.DialOption{
		ftp.DialWithNetConn(netConn),
		ftp.DialWithTimeout(timeout),
	}
	if d.config.ExplicitTLS {
		tlsConfig := d.config.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{ServerName: host}
		}
		options = append(options, ftp.DialWithExplicitTLS(tlsConfig))
	}
	if d.config.DisableEPSV {
		options = append(options, ftp.DialWithDisabledEPSV(true))
	}
	if d.config.DebugOutput != nil {
		options = append(options, ftp.DialWithDebugOutput(d.config.DebugOutput))
	}
	return options
}

// Conn is a transport.Conn over one FTP control connection
type Conn struct {
	c *ftp.ServerConn
	// ctl is nil when the control connection is encrypted
	ctl     *control
	options map[transport.Option]any
}

// NewConn wraps an established connection
func NewConn(c *ftp.ServerConn, timeout time.Duration) *Conn {
	return &Conn{
		c: c,
		options: map[transport.Option]any{
			transport.OptionTimeout:        int(timeout / time.Second),
			transport.OptionAutoSeek:       true,
			transport.OptionUsePasvAddress: true,
		},
	}
}

func (c *Conn) Login(user, password string) error {
	return errors.WithStack(c.c.Login(user, password))
}

func (c *Conn) SystemType() (string, error) {
	if c.ctl == nil {
		return SystemType, nil
	}
	_, message, err := c.ctl.cmd(215, "SYST")
	if err != nil {
		return "", err
	}
	return message, nil
}

// RawList returns the server's own LIST lines, in the style SystemType names
func (c *Conn) RawList(p string) ([]string, error) {
	if c.ctl != nil {
		return c.ctl.list(p, c.usePasvAddress())
	}
	entries, err := c.c.List(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return entryLines(entries), nil
}

// RawListRecursive lists p and then every folder below it, depth first. Blocks are
// rendered as UNIX lines whatever the server's style, since the library has already
// parsed them.
func (c *Conn) RawListRecursive(p string) ([]string, error) {
	entries, err := c.c.List(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	lines := entryLines(entries)
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFolder || isDotEntry(e.Name) {
			continue
		}
		child := path.Join(p, e.Name)
		sub, err := c.RawListRecursive(child)
		if err != nil {
			return nil, err
		}
		lines = append(lines, "", child+":")
		lines = append(lines, sub...)
	}
	return lines, nil
}

func (c *Conn) NameList(p string) ([]string, error) {
	names, err := c.c.NameList(p)
	return names, errors.WithStack(err)
}

func (c *Conn) Store(p string, r io.Reader, mode entity.TransferMode) error {
	if err := c.c.Type(transferType(mode)); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.c.Stor(p, r))
}

func (c *Conn) Retrieve(p string, w io.Writer, mode entity.TransferMode) error {
	if err := c.c.Type(transferType(mode)); err != nil {
		return errors.WithStack(err)
	}
	resp, err := c.c.Retr(p)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = io.Copy(w, resp)
	closeErr := resp.Close()
	if err != nil {
		return errors.Wrap(err, "read data connection")
	}
	return errors.WithStack(closeErr)
}

func (c *Conn) MakeDir(p string) error {
	return errors.WithStack(c.c.MakeDir(p))
}

func (c *Conn) RemoveDir(p string) error {
	return errors.WithStack(c.c.RemoveDir(p))
}

func (c *Conn) Delete(p string) error {
	return errors.WithStack(c.c.Delete(p))
}

func (c *Conn) Rename(from, to string) error {
	return errors.WithStack(c.c.Rename(from, to))
}

func (c *Conn) ChangeDir(p string) error {
	return errors.WithStack(c.c.ChangeDir(p))
}

func (c *Conn) ChangeDirToParent() error {
	return errors.WithStack(c.c.ChangeDirToParent())
}

func (c *Conn) CurrentDir() (string, error) {
	dir, err := c.c.CurrentDir()
	return dir, errors.WithStack(err)
}

// Chmod is unsupported: FTP has no native command for it, and the session falls back
// to "SITE CHMOD"
func (c *Conn) Chmod(string, os.FileMode) error {
	return transport.ErrUnsupported
}

func (c *Conn) FileSize(p string) (int64, error) {
	size, err := c.c.FileSize(p)
	return size, errors.WithStack(err)
}

func (c *Conn) ModTime(p string) (time.Time, error) {
	t, err := c.c.GetTime(p)
	return t, errors.WithStack(err)
}

func (c *Conn) Site(command string) error {
	if c.ctl == nil {
		return errors.Wrap(transport.ErrUnsupported, "SITE over TLS")
	}
	_, _, err := c.ctl.cmd(2, "SITE %s", command)
	return err
}

// Exec runs "SITE EXEC" and returns the reply text as the command's output
func (c *Conn) Exec(command string) (string, error) {
	if c.ctl == nil {
		return "", errors.Wrap(transport.ErrUnsupported, "SITE EXEC over TLS")
	}
	_, message, err := c.ctl.cmd(2, "SITE EXEC %s", command)
	if err != nil {
		return "", err
	}
	return message, nil
}

func (c *Conn) GetOption(option transport.Option) (any, error) {
	v, ok := c.options[option]
	if !ok {
		return nil, fmt.Errorf("unknown option %v", option)
	}
	return v, nil
}

// SetOption records the value. The library's own connections only see it on the next dial.
func (c *Conn) SetOption(option transport.Option, value any) error {
	if _, ok := c.options[option]; !ok {
		return fmt.Errorf("unknown option %v", option)
	}
	c.options[option] = value
	if secs, ok := value.(int); ok && option == transport.OptionTimeout && c.ctl != nil {
		c.ctl.timeout = time.Duration(secs) * time.Second
	}
	return nil
}

// SetPassive accepts only passive mode, which is the only mode the library speaks
func (c *Conn) SetPassive(passive bool) error {
	if !passive {
		return errors.Wrap(transport.ErrUnsupported, "active mode")
	}
	return nil
}

func (c *Conn) Close() error {
	return errors.WithStack(c.c.Quit())
}

func (c *Conn) usePasvAddress() bool {
	use, ok := c.options[transport.OptionUsePasvAddress].(bool)
	return !ok || use
}

func transferType(mode entity.TransferMode) ftp.TransferType {
	if mode == entity.Text {
		return ftp.TransferTypeASCII
	}
	return ftp.TransferTypeBinary
}

func isDotEntry(name string) bool {
	return name == "." || name == ".."
}

// entryLines renders parsed entries as a UNIX listing, "total" line first
func entryLines(entries []*ftp.Entry) []string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, fmt.Sprintf("total %d", len(entries)))
	for _, e := range entries {
		if isDotEntry(e.Name) {
			continue
		}
		lines = append(lines, entryLine(e))
	}
	return lines
}

func entryLine(e *ftp.Entry) string {
	l := transport.UnixLine{Kind: entity.File, Size: int64(e.Size), ModTime: e.Time, Name: e.Name}
	switch e.Type {
	case ftp.EntryTypeFolder:
		l.Kind = entity.Directory
	case ftp.EntryTypeLink:
		l.Kind, l.Target = entity.Symlink, e.Target
	}
	return transport.FormatUnixLine(l)
}
