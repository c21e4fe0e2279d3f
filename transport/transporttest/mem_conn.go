// Package transporttest provides an in-memory transport.Conn with a call log and
// failure injection, for tests of code that drives a remote session.
package transporttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/transport"
)

// Call is one logged transport call
type Call struct {
	Op   string
	Path string
}

func (c Call) String() string {
	return c.Op + " " + c.Path
}

type memNode struct {
	isDir    bool
	data     []byte
	target   string
	perm     os.FileMode
	modTime  time.Time
	children []string
}

// MemConn is an in-memory remote file tree that speaks transport.Conn.
// Paths are POSIX; relative paths are resolved against the working directory.
type MemConn struct {
	// SystemTypeReply is returned by SystemType ("UNIX Type: L8" by default)
	SystemTypeReply string
	// User and Password, when User is non-empty, are the only accepted credentials
	User     string
	Password string
	// ListDotEntries adds "." and ".." lines to listings
	ListDotEntries bool

	nodes       map[string]*memNode
	cwd         string
	closed      bool
	passive     bool
	options     map[transport.Option]any
	calls       []Call
	failures    map[string]error
	unsupported set.Set[string]
	modes       map[string]entity.TransferMode
	clock       time.Time
}

// NewMemConn creates an empty tree with only "/"
func NewMemConn() *MemConn {
	return &MemConn{
		SystemTypeReply: "UNIX Type: L8",
		nodes:           map[string]*memNode{"/": {isDir: true, perm: 0755}},
		cwd:             "/",
		options: map[transport.Option]any{
			transport.OptionTimeout:  30,
			transport.OptionAutoSeek: true,
		},
		failures:    map[string]error{},
		unsupported: set.NewSet[string](),
		modes:       map[string]entity.TransferMode{},
		clock:       time.Date(2023, time.January, 2, 15, 4, 5, 0, time.UTC),
	}
}

// Dialer hands out the same MemConn on every dial
type Dialer struct {
	Conn    *MemConn
	DialErr error
	Port    int
	Dialed  []transport.Endpoint
}

func (d *Dialer) Dial(_ context.Context, endpoint transport.Endpoint) (transport.Conn, error) {
	d.Dialed = append(d.Dialed, endpoint)
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	d.Conn.closed = false
	return d.Conn, nil
}

func (d *Dialer) DefaultPort() int {
	if d.Port == 0 {
		return 21
	}
	return d.Port
}

// FailOn makes op (e.g. "STOR") on p fail with err; an empty p fails op everywhere
func (m *MemConn) FailOn(op, p string, err error) {
	m.failures[op+"\x00"+m.failureKey(op, p)] = err
}

// Unsupported makes the given ops return transport.ErrUnsupported
func (m *MemConn) Unsupported(ops ...string) {
	for _, op := range ops {
		m.unsupported.Add(op)
	}
}

// Calls returns every call made so far
func (m *MemConn) Calls() []Call {
	return m.calls
}

// CallsOf returns the paths of every call of op, in order
func (m *MemConn) CallsOf(op string) []string {
	var paths []string
	for _, c := range m.calls {
		if c.Op == op {
			paths = append(paths, c.Path)
		}
	}
	return paths
}

// ResetCalls clears the call log
func (m *MemConn) ResetCalls() {
	m.calls = nil
}

// AddDir creates a directory and its parents
func (m *MemConn) AddDir(p string) {
	p = m.resolve(p)
	if n, ok := m.nodes[p]; ok && n.isDir {
		return
	}
	m.AddDir(path.Dir(p))
	m.insert(p, &memNode{isDir: true, perm: 0755, modTime: m.tick()})
}

// AddFile creates a file (and its parent directories) with the given content
func (m *MemConn) AddFile(p, content string) {
	p = m.resolve(p)
	m.AddDir(path.Dir(p))
	if n, ok := m.nodes[p]; ok && !n.isDir {
		n.data = []byte(content)
		return
	}
	m.insert(p, &memNode{data: []byte(content), perm: 0644, modTime: m.tick()})
}

// AddSymlink creates a symbolic link pointing at target
func (m *MemConn) AddSymlink(p, target string) {
	p = m.resolve(p)
	m.AddDir(path.Dir(p))
	m.insert(p, &memNode{target: target, perm: 0777, modTime: m.tick()})
}

// Exists tells whether anything exists at p
func (m *MemConn) Exists(p string) bool {
	_, ok := m.nodes[m.resolve(p)]
	return ok
}

// IsDir tells whether p is a directory
func (m *MemConn) IsDir(p string) bool {
	n, ok := m.nodes[m.resolve(p)]
	return ok && n.isDir
}

// Content returns the content of the file at p
func (m *MemConn) Content(p string) string {
	if n, ok := m.nodes[m.resolve(p)]; ok {
		return string(n.data)
	}
	return ""
}

// Perm returns the permission bits of p
func (m *MemConn) Perm(p string) os.FileMode {
	if n, ok := m.nodes[m.resolve(p)]; ok {
		return n.perm
	}
	return 0
}

// ModeOf returns the transfer mode the last Store or Retrieve of p used
func (m *MemConn) ModeOf(p string) entity.TransferMode {
	return m.modes[m.resolve(p)]
}

// IsClosed tells whether Close has been called
func (m *MemConn) IsClosed() bool {
	return m.closed
}

// IsPassive tells whether passive mode is on
func (m *MemConn) IsPassive() bool {
	return m.passive
}

func (m *MemConn) Login(user, password string) error {
	if err := m.enter("USER", user); err != nil {
		return err
	}
	if m.User != "" && (user != m.User || password != m.Password) {
		return fmt.Errorf("530 Login incorrect.")
	}
	return nil
}

func (m *MemConn) SystemType() (string, error) {
	if err := m.enter("SYST", ""); err != nil {
		return "", err
	}
	return m.SystemTypeReply, nil
}

func (m *MemConn) RawList(p string) ([]string, error) {
	if err := m.enter("LIST", p); err != nil {
		return nil, err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok {
		return nil, fmt.Errorf("450 %s: No such file or directory", p)
	}
	if !n.isDir {
		return []string{m.line(path.Base(p), n)}, nil
	}
	return m.dirLines(p, n), nil
}

func (m *MemConn) RawListRecursive(p string) ([]string, error) {
	if err := m.enter("LIST -R", p); err != nil {
		return nil, err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok || !n.isDir {
		return nil, fmt.Errorf("450 %s: No such file or directory", p)
	}
	lines := m.dirLines(p, n)
	var walk func(dir string, node *memNode)
	walk = func(dir string, node *memNode) {
		for _, name := range node.children {
			child := path.Join(dir, name)
			cn := m.nodes[child]
			if !cn.isDir {
				continue
			}
			lines = append(lines, "", child+":")
			lines = append(lines, m.dirLines(child, cn)...)
			walk(child, cn)
		}
	}
	walk(p, n)
	return lines, nil
}

func (m *MemConn) NameList(p string) ([]string, error) {
	if err := m.enter("NLST", p); err != nil {
		return nil, err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok || !n.isDir {
		return nil, fmt.Errorf("450 %s: No such file or directory", p)
	}
	return append([]string(nil), n.children...), nil
}

func (m *MemConn) Store(p string, r io.Reader, mode entity.TransferMode) error {
	if err := m.enter("STOR", p); err != nil {
		return err
	}
	p = m.resolve(p)
	parent, ok := m.nodes[path.Dir(p)]
	if !ok || !parent.isDir {
		return fmt.Errorf("553 Could not create file.")
	}
	if n, ok := m.nodes[p]; ok && n.isDir {
		return fmt.Errorf("553 Could not create file.")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if n, ok := m.nodes[p]; ok {
		n.data = data
		n.modTime = m.tick()
	} else {
		m.insert(p, &memNode{data: data, perm: 0644, modTime: m.tick()})
	}
	m.modes[p] = mode
	return nil
}

func (m *MemConn) Retrieve(p string, w io.Writer, mode entity.TransferMode) error {
	if err := m.enter("RETR", p); err != nil {
		return err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok || n.isDir {
		return fmt.Errorf("550 Failed to open file.")
	}
	m.modes[p] = mode
	_, err := io.Copy(w, bytes.NewReader(n.data))
	return err
}

func (m *MemConn) MakeDir(p string) error {
	if err := m.enter("MKD", p); err != nil {
		return err
	}
	p = m.resolve(p)
	parent, ok := m.nodes[path.Dir(p)]
	if _, exists := m.nodes[p]; exists || !ok || !parent.isDir {
		return fmt.Errorf("550 Create directory operation failed.")
	}
	m.insert(p, &memNode{isDir: true, perm: 0755, modTime: m.tick()})
	return nil
}

func (m *MemConn) RemoveDir(p string) error {
	if err := m.enter("RMD", p); err != nil {
		return err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok || !n.isDir || len(n.children) > 0 || p == "/" {
		return fmt.Errorf("550 Remove directory operation failed.")
	}
	m.remove(p)
	return nil
}

func (m *MemConn) Delete(p string) error {
	if err := m.enter("DELE", p); err != nil {
		return err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok || n.isDir {
		return fmt.Errorf("550 Delete operation failed.")
	}
	m.remove(p)
	return nil
}

func (m *MemConn) Rename(from, to string) error {
	if err := m.enter("RNFR", from+" -> "+to); err != nil {
		return err
	}
	from, to = m.resolve(from), m.resolve(to)
	n, ok := m.nodes[from]
	parent, parentOk := m.nodes[path.Dir(to)]
	if !ok || !parentOk || !parent.isDir {
		return fmt.Errorf("550 RNFR command failed.")
	}
	if _, exists := m.nodes[to]; exists {
		return fmt.Errorf("550 Rename failed.")
	}
	moved := map[string]*memNode{}
	for k, v := range m.nodes {
		if k == from || strings.HasPrefix(k, from+"/") {
			moved[to+strings.TrimPrefix(k, from)] = v
		}
	}
	m.remove(from)
	m.insert(to, n)
	for k, v := range moved {
		m.nodes[k] = v
	}
	return nil
}

func (m *MemConn) ChangeDir(p string) error {
	if err := m.enter("CWD", p); err != nil {
		return err
	}
	p = m.resolve(p)
	n, ok := m.nodes[p]
	if !ok || !n.isDir {
		return fmt.Errorf("550 Failed to change directory.")
	}
	m.cwd = p
	return nil
}

func (m *MemConn) ChangeDirToParent() error {
	if err := m.enter("CDUP", ""); err != nil {
		return err
	}
	m.cwd = path.Dir(m.cwd)
	return nil
}

func (m *MemConn) CurrentDir() (string, error) {
	if err := m.enter("PWD", ""); err != nil {
		return "", err
	}
	return m.cwd, nil
}

func (m *MemConn) Chmod(p string, mode os.FileMode) error {
	if err := m.enter("CHMOD", p); err != nil {
		return err
	}
	n, ok := m.nodes[m.resolve(p)]
	if !ok {
		return fmt.Errorf("550 SITE CHMOD command failed.")
	}
	n.perm = mode.Perm()
	return nil
}

func (m *MemConn) FileSize(p string) (int64, error) {
	if err := m.enter("SIZE", p); err != nil {
		return 0, err
	}
	n, ok := m.nodes[m.resolve(p)]
	if !ok || n.isDir {
		return 0, fmt.Errorf("550 Could not get file size.")
	}
	return int64(len(n.data)), nil
}

func (m *MemConn) ModTime(p string) (time.Time, error) {
	if err := m.enter("MDTM", p); err != nil {
		return time.Time{}, err
	}
	n, ok := m.nodes[m.resolve(p)]
	if !ok || n.isDir {
		return time.Time{}, fmt.Errorf("550 Could not get file modification time.")
	}
	return n.modTime, nil
}

// Site understands "CHMOD <octal> <path>" and accepts anything else
func (m *MemConn) Site(command string) error {
	if err := m.enter("SITE", command); err != nil {
		return err
	}
	fields := strings.SplitN(command, " ", 3)
	if len(fields) == 3 && strings.EqualFold(fields[0], "CHMOD") {
		perm, err := strconv.ParseUint(fields[1], 8, 32)
		if err != nil {
			return fmt.Errorf("501 Invalid mode.")
		}
		n, ok := m.nodes[m.resolve(fields[2])]
		if !ok {
			return fmt.Errorf("550 SITE CHMOD command failed.")
		}
		n.perm = os.FileMode(perm).Perm()
	}
	return nil
}

func (m *MemConn) Exec(command string) (string, error) {
	if err := m.enter("EXEC", command); err != nil {
		return "", err
	}
	return "executed: " + command, nil
}

func (m *MemConn) GetOption(option transport.Option) (any, error) {
	if err := m.enter("GETOPT", option.String()); err != nil {
		return nil, err
	}
	v, ok := m.options[option]
	if !ok {
		return nil, fmt.Errorf("unknown option %v", option)
	}
	return v, nil
}

func (m *MemConn) SetOption(option transport.Option, value any) error {
	if err := m.enter("SETOPT", option.String()); err != nil {
		return err
	}
	m.options[option] = value
	return nil
}

func (m *MemConn) SetPassive(passive bool) error {
	if err := m.enter("PASV", strconv.FormatBool(passive)); err != nil {
		return err
	}
	m.passive = passive
	return nil
}

func (m *MemConn) Close() error {
	if err := m.enter("QUIT", ""); err != nil {
		return err
	}
	m.closed = true
	return nil
}

// enter logs the call and applies closed state, unsupported ops and injected failures
func (m *MemConn) enter(op, p string) error {
	m.calls = append(m.calls, Call{Op: op, Path: p})
	if m.closed {
		return fmt.Errorf("use of closed network connection")
	}
	if m.unsupported.Contains(op) {
		return transport.ErrUnsupported
	}
	if err, ok := m.failures[op+"\x00"]; ok {
		return err
	}
	if p == "" {
		return nil
	}
	if err, ok := m.failures[op+"\x00"+m.failureKey(op, p)]; ok {
		return err
	}
	return nil
}

// failureKey resolves path arguments; command arguments are matched verbatim
func (m *MemConn) failureKey(op, p string) string {
	switch op {
	case "SITE", "EXEC", "RNFR", "USER", "GETOPT", "SETOPT", "PASV":
		return p
	}
	if p == "" {
		return ""
	}
	return m.resolve(p)
}

func (m *MemConn) resolve(p string) string {
	if !path.IsAbs(p) {
		p = path.Join(m.cwd, p)
	}
	return path.Clean(p)
}

func (m *MemConn) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *MemConn) insert(p string, n *memNode) {
	m.nodes[p] = n
	parent := m.nodes[path.Dir(p)]
	parent.children = append(parent.children, path.Base(p))
}

func (m *MemConn) remove(p string) {
	for k := range m.nodes {
		if k == p || strings.HasPrefix(k, p+"/") {
			delete(m.nodes, k)
		}
	}
	parent, ok := m.nodes[path.Dir(p)]
	if !ok {
		return
	}
	name := path.Base(p)
	for i, c := range parent.children {
		if c == name {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
}

func (m *MemConn) dirLines(p string, n *memNode) []string {
	lines := []string{fmt.Sprintf("total %d", len(n.children))}
	if m.ListDotEntries {
		lines = append(lines, m.line(".", n), m.line("..", n))
	}
	for _, name := range n.children {
		lines = append(lines, m.line(name, m.nodes[path.Join(p, name)]))
	}
	return lines
}

func (m *MemConn) line(name string, n *memNode) string {
	if entity.ListingStyleFromSystemType(m.SystemTypeReply) == entity.WindowsNTStyle {
		date := n.modTime.Format("01-02-06  03:04PM")
		if n.isDir {
			return date + "       <DIR>" + strings.Repeat(" ", 10) + name
		}
		return fmt.Sprintf("%s %20d %s", date, len(n.data), name)
	}
	l := transport.UnixLine{Kind: entity.File, Perm: n.perm, Size: int64(len(n.data)), ModTime: n.modTime, Name: name}
	switch {
	case n.isDir:
		l.Kind, l.Size = entity.Directory, 4096
	case n.target != "":
		l.Kind, l.Size, l.Target = entity.Symlink, int64(len(n.target)), n.target
	}
	return transport.FormatUnixLine(l)
}
