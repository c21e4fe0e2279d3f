package ftpconn

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// control sends the commands the library has no call for (SYST, SITE, raw LIST) over
// the same plaintext control connection the library logged in on. Replies are read in
// full before returning, so the library's own reader never sees them.
type control struct {
	conn        net.Conn
	text        *textproto.Conn
	timeout     time.Duration
	disableEPSV bool
	skipEPSV    bool
	debug       io.Writer
}

func newControl(conn net.Conn, timeout time.Duration, disableEPSV bool, debug io.Writer) *control {
	return &control{
		conn:        conn,
		text:        textproto.NewConn(conn),
		timeout:     timeout,
		disableEPSV: disableEPSV,
		debug:       debug,
	}
}

// cmd sends one command and reads its reply. expect follows textproto: 2 accepts any
// 2xx reply, 215 only that code, and -1 accepts anything.
func (c *control) cmd(expect int, format string, args ...any) (int, string, error) {
	line := fmt.Sprintf(format, args...)
	c.trace("> %s", line)
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, "", errors.WithStack(err)
	}
	defer c.conn.SetWriteDeadline(time.Time{})
	if err := c.text.PrintfLine("%s", line); err != nil {
		return 0, "", errors.Wrapf(err, "send %s", verb(line))
	}
	return c.read(expect)
}

func (c *control) read(expect int) (int, string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, "", errors.WithStack(err)
	}
	defer c.conn.SetReadDeadline(time.Time{})
	code, message, err := c.text.ReadResponse(expect)
	if code != 0 {
		c.trace("< %d %s", code, message)
	}
	if err != nil {
		return code, message, errors.WithStack(err)
	}
	return code, message, nil
}

func (c *control) trace(format string, args ...any) {
	if c.debug != nil {
		_, _ = fmt.Fprintf(c.debug, format+"\n", args...)
	}
}

// list runs LIST over a fresh passive data connection and returns its lines as sent
func (c *control) list(p string, usePasvAddress bool) ([]string, error) {
	data, err := c.dataConn(usePasvAddress)
	if err != nil {
		return nil, err
	}
	defer data.Close()

	command := "LIST"
	if p != "" {
		command += " " + p
	}
	code, message, err := c.cmd(-1, "%s", command)
	if err != nil {
		return nil, err
	}
	if code >= 300 {
		return nil, errors.WithStack(&textproto.Error{Code: code, Msg: message})
	}

	if err := data.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, errors.WithStack(err)
	}
	var lines []string
	scanner := bufio.NewScanner(data)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read data connection")
	}
	_ = data.Close()

	// a 2xx on the LIST itself means the transfer was already complete
	if code < 200 {
		if _, _, err := c.read(2); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// dataConn opens a passive data connection, trying EPSV before PASV
func (c *control) dataConn(usePasvAddress bool) (net.Conn, error) {
	host, _, err := net.SplitHostPort(c.conn.RemoteAddr().String())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !c.disableEPSV && !c.skipEPSV {
		if _, message, err := c.cmd(229, "EPSV"); err == nil {
			if port, err := epsvPort(message); err == nil {
				return c.dial(host, port)
			}
		}
		c.skipEPSV = true
	}
	_, message, err := c.cmd(227, "PASV")
	if err != nil {
		return nil, err
	}
	pasvHost, port, err := pasvAddress(message)
	if err != nil {
		return nil, err
	}
	if usePasvAddress {
		host = pasvHost
	}
	return c.dial(host, port)
}

func (c *control) dial(host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "open data connection to %s", addr)
	}
	return conn, nil
}

// epsvPort reads the port out of "Entering Extended Passive Mode (|||6446|)"
func epsvPort(message string) (int, error) {
	start := strings.Index(message, "|||")
	end := strings.LastIndex(message, "|")
	if start == -1 || end <= start+3 {
		return 0, errors.Errorf("invalid EPSV reply %q", message)
	}
	port, err := strconv.Atoi(message[start+3 : end])
	if err != nil {
		return 0, errors.Wrapf(err, "invalid EPSV reply %q", message)
	}
	return port, nil
}

// pasvAddress reads host and port out of "Entering Passive Mode (h1,h2,h3,h4,p1,p2)"
func pasvAddress(message string) (string, int, error) {
	start := strings.Index(message, "(")
	end := strings.LastIndex(message, ")")
	if start == -1 || end < start {
		return "", 0, errors.Errorf("invalid PASV reply %q", message)
	}
	fields := strings.Split(message[start+1:end], ",")
	if len(fields) != 6 {
		return "", 0, errors.Errorf("invalid PASV reply %q", message)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid PASV reply %q", message)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(fields[5]))
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid PASV reply %q", message)
	}
	return strings.Join(fields[:4], "."), hi*256 + lo, nil
}

func verb(line string) string {
	if i := strings.IndexByte(line, ' '); i > 0 {
		return line[:i]
	}
	return line
}
