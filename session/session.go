// Package session holds the state of one remote file-transfer session and wraps every
// remote call in the same envelope: live-session precondition, timing, error translation
// and diagnostics.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/m-manu/ftp-sidekick/diag"
	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/fs"
	"github.com/m-manu/ftp-sidekick/transport"
)

// DefaultAnonymousPassword is sent when no password is given
const DefaultAnonymousPassword = "qwertz@anonymous.net"

const component = "Session"

// Credentials describes whom to connect to and as whom.
// A nil Password logs in with the session's anonymous password.
type Credentials struct {
	Host     string
	Port     int
	User     string
	Password *string
	Timeout  time.Duration
}

// Session is a single, sequential remote session. It is not safe for concurrent use.
type Session struct {
	dialer            transport.Dialer
	conn              transport.Conn
	endpoint          transport.Endpoint
	user              string
	anonymousPassword string
	style             entity.ListingStyle
	modes             *ModeSelector
	elapsed           time.Duration
	passive           bool
	debug             bool
	sink              diag.Sink
	local             fs.FileSystem
}

// Option configures a Session
type Option func(*Session)

// WithSink sends diagnostics to sink instead of the console
func WithSink(sink diag.Sink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithDebug turns diagnostics on or off
func WithDebug(debug bool) Option {
	return func(s *Session) {
		s.debug = debug
	}
}

// WithFileSystem replaces the local file system
func WithFileSystem(local fs.FileSystem) Option {
	return func(s *Session) {
		s.local = local
	}
}

// WithTextExtensions replaces the default text extensions
func WithTextExtensions(extensions ...string) Option {
	return func(s *Session) {
		s.modes.Set(extensions...)
	}
}

// WithAnonymousPassword replaces DefaultAnonymousPassword
func WithAnonymousPassword(password string) Option {
	return func(s *Session) {
		s.anonymousPassword = password
	}
}

// New creates a disconnected session that will connect through dialer
func New(dialer transport.Dialer, opts ...Option) *Session {
	s := &Session{
		dialer:            dialer,
		anonymousPassword: DefaultAnonymousPassword,
		modes:             NewModeSelector(DefaultTextExtensions...),
		local:             fs.NewLocalFS(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials, logs in and determines the listing style from the server's system type.
// An already open connection is closed first.
func (s *Session) Connect(ctx context.Context, c Credentials) error {
	const op = "Connect"
	start := time.Now()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if c.Port == 0 {
		c.Port = s.dialer.DefaultPort()
	}
	if c.Timeout == 0 {
		c.Timeout = transport.DefaultTimeout
	}
	password := s.anonymousPassword
	if c.Password != nil {
		password = *c.Password
	}
	s.endpoint = transport.Endpoint{Host: c.Host, Port: c.Port, Timeout: c.Timeout}
	s.user = c.User

	s.Trace(op, fmt.Sprintf("connecting to '%s'", s.endpoint.Address()))
	conn, err := s.dialer.Dial(ctx, s.endpoint)
	if err != nil {
		e := NewError(ConnectionError, op, "could not connect to the host", err)
		s.Trace(op, e.Error())
		return e
	}

	s.Trace(op, fmt.Sprintf("logging in with '%s'", c.User))
	if err := conn.Login(c.User, password); err != nil {
		_ = conn.Close()
		e := NewError(AuthenticationError, op, "unable to login", err)
		s.Trace(op, e.Error())
		return e
	}

	systemType, err := conn.SystemType()
	if err != nil {
		s.Trace(op, fmt.Sprintf("could not get system type (%v)", err))
	}
	s.style = entity.ListingStyleFromSystemType(systemType)
	s.conn = conn
	s.passive = false

	elapsed := time.Since(start)
	s.elapsed += elapsed
	s.TraceElapsed(op, fmt.Sprintf("connection successful, listing style %v", s.style), elapsed)
	return nil
}

// Connected tells whether the session has a live transport handle
func (s *Session) Connected() bool {
	return s.conn != nil
}

// Elapsed is the cumulative time spent in successful remote operations
func (s *Session) Elapsed() time.Duration {
	return s.elapsed
}

// Endpoint is the host and port last connected to
func (s *Session) Endpoint() transport.Endpoint {
	return s.endpoint
}

// User is the user name last logged in with
func (s *Session) User() string {
	return s.user
}

// Style is the listing style established at connect time
func (s *Session) Style() entity.ListingStyle {
	return s.style
}

// Passive tells whether passive mode has been switched on
func (s *Session) Passive() bool {
	return s.passive
}

func (s *Session) SetAnonymousPassword(password string) {
	s.anonymousPassword = password
}

func (s *Session) AnonymousPassword() string {
	return s.anonymousPassword
}

func (s *Session) SetDebug(debug bool) {
	s.debug = debug
}

func (s *Session) Debug() bool {
	return s.debug
}

func (s *Session) SetSink(sink diag.Sink) {
	s.sink = sink
}

// Modes is the transfer-mode selector of this session
func (s *Session) Modes() *ModeSelector {
	return s.modes
}

// TextExtensions returns the extensions transferred in text mode
func (s *Session) TextExtensions() []string {
	return s.modes.Extensions()
}

func (s *Session) SetTextExtensions(extensions ...string) {
	s.modes.Set(extensions...)
}

func (s *Session) AddTextExtensions(extensions ...string) {
	s.modes.Add(extensions...)
}

// LocalFS is the local file system transfers read from and write to
func (s *Session) LocalFS() fs.FileSystem {
	return s.local
}

// Emit sends a diagnostic record to the sink when debugging is on
func (s *Session) Emit(r diag.Record) {
	if !s.debug {
		return
	}
	diag.Emit(s.sink, r)
}

// Trace emits a session diagnostic
func (s *Session) Trace(op, message string) {
	s.Emit(diag.Record{Component: component, Op: op, Message: message})
}

// TraceElapsed emits a session diagnostic with a duration
func (s *Session) TraceElapsed(op, message string, elapsed time.Duration) {
	s.Emit(diag.Record{Component: component, Op: op, Message: message, Elapsed: elapsed})
}

// Precondition fails with a SessionError when there is no live transport handle
func (s *Session) Precondition(op string) error {
	if s.conn == nil {
		s.Trace(op, "no active session")
		return NewError(SessionError, op, "no active session", nil)
	}
	return nil
}

// do is the envelope around a single remote call
func (s *Session) do(op string, kind Kind, failMessage string, call func(conn transport.Conn) error) error {
	if err := s.Precondition(op); err != nil {
		return err
	}
	start := time.Now()
	if err := call(s.conn); err != nil {
		e := NewError(kind, op, failMessage, err)
		s.Trace(op, e.Error())
		return e
	}
	elapsed := time.Since(start)
	s.elapsed += elapsed
	s.TraceElapsed(op, "successful", elapsed)
	return nil
}
