package ssdp

import "fmt"

// ErrorKind represents the category of a session error
type ErrorKind int

const (
	// ErrKindJoinFailed indicates the network stack rejected the multicast group join
	ErrKindJoinFailed ErrorKind = iota + 1
	// ErrKindBindFailed indicates the discovery port could not be bound
	ErrKindBindFailed
	// ErrKindNoInterface indicates no usable IPv4 multicast interface was found
	ErrKindNoInterface
	// ErrKindNotStarted indicates an operation that requires a running session
	ErrKindNotStarted
)

// Sentinel errors for use with errors.Is
var (
	ErrJoinFailed  = &Error{Kind: ErrKindJoinFailed}
	ErrBindFailed  = &Error{Kind: ErrKindBindFailed}
	ErrNoInterface = &Error{Kind: ErrKindNoInterface}
	ErrNotStarted  = &Error{Kind: ErrKindNotStarted}
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrKindJoinFailed:
		return "JoinFailed"
	case ErrKindBindFailed:
		return "BindFailed"
	case ErrKindNoInterface:
		return "NoInterface"
	case ErrKindNotStarted:
		return "NotStarted"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is returned by session establishment. No retry is attempted; the
// caller fixes the network layer and calls Begin again.
type Error struct {
	Kind ErrorKind
	Op   string // Operation that failed (e.g. "join 239.255.255.250 on eth0")
	Err  error  // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
