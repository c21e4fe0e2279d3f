package session

import (
	"errors"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies session errors
type Kind int

const (
	ConnectionError Kind = iota + 1
	AuthenticationError
	SessionError
	ListingError
	RemoteOperationError
	LocalIOError
	NotADirectoryError
)

func (k Kind) String() string {
	switch k {
	case ConnectionError:
		return "connection error"
	case AuthenticationError:
		return "authentication error"
	case SessionError:
		return "session error"
	case ListingError:
		return "listing error"
	case RemoteOperationError:
		return "remote operation error"
	case LocalIOError:
		return "local I/O error"
	case NotADirectoryError:
		return "not a directory"
	}
	return "unknown error"
}

// Sentinels to test error kinds with errors.Is
var (
	ErrConnection      = errors.New("connection error")
	ErrAuthentication  = errors.New("authentication error")
	ErrSession         = errors.New("session error")
	ErrListing         = errors.New("listing error")
	ErrRemoteOperation = errors.New("remote operation error")
	ErrLocalIO         = errors.New("local I/O error")
	ErrNotADirectory   = errors.New("not a directory")
	ErrPartialTree     = errors.New("partial tree failure")
)

var kindSentinels = map[Kind]error{
	ConnectionError:      ErrConnection,
	AuthenticationError:  ErrAuthentication,
	SessionError:         ErrSession,
	ListingError:         ErrListing,
	RemoteOperationError: ErrRemoteOperation,
	LocalIOError:         ErrLocalIO,
	NotADirectoryError:   ErrNotADirectory,
}

// Error is a failed session operation. Err, when set, is the transport or local
// error whose text was appended to Message as a diagnostic.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// NewError creates an error with a diagnostic taken from cause (which may be nil)
func NewError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if d := diagnostic(e.Err); d != "" {
		return e.Message + " (" + d + ")"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the kind of the first *Error in err's chain, or 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func diagnostic(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// PartialTreeError is returned when a best-effort tree operation finished with
// one or more per-entry failures. Work that succeeded is not rolled back.
type PartialTreeError struct {
	Message  string
	failures *multierror.Error
}

// NewPartialTreeError aggregates failures; nested partial tree errors are flattened
func NewPartialTreeError(message string, failures ...error) *PartialTreeError {
	p := &PartialTreeError{Message: message}
	for _, f := range failures {
		p.Add(f)
	}
	return p
}

// Add records one more failure
func (p *PartialTreeError) Add(err error) {
	var nested *PartialTreeError
	if errors.As(err, &nested) {
		p.failures = multierror.Append(p.failures, nested.Failures()...)
		return
	}
	p.failures = multierror.Append(p.failures, err)
}

// Failures returns the per-entry causes, in the order they happened
func (p *PartialTreeError) Failures() []error {
	if p.failures == nil {
		return nil
	}
	return p.failures.Errors
}

// HasFailures tells whether anything was recorded
func (p *PartialTreeError) HasFailures() bool {
	return len(p.Failures()) > 0
}

func (p *PartialTreeError) Error() string {
	return p.Message
}

// Details lists every failure, one per line
func (p *PartialTreeError) Details() string {
	if p.failures == nil {
		return p.Message
	}
	return p.Message + ": " + p.failures.Error()
}

func (p *PartialTreeError) Unwrap() []error {
	return p.Failures()
}

func (p *PartialTreeError) Is(target error) bool {
	return target == ErrPartialTree
}
