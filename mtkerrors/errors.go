// Package mtkerrors defines the typed error kinds surfaced by the pmtk
// package (including the LOCUS stream errors it wraps), and the retry
// policy the transactor applies to them.
package mtkerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error. Zero value is never produced by this package.
type Kind int

const (
	// Protocol covers unexpected-but-recoverable framing mismatches: a
	// reply with the wrong name, or too few fields.
	Protocol Kind = iota + 1
	// GpsSaysInvalidCommand is an ack with status '0'.
	GpsSaysInvalidCommand
	// GpsSaysUnsupportedCommand is an ack with status '1'.
	GpsSaysUnsupportedCommand
	// GpsSaysActionFailed is an ack with status '2'.
	GpsSaysActionFailed
	// BootFailed means wait_for_boot exceeded its read-error or
	// spurious-frame budget.
	BootFailed
	// ReadTimeout means the byte pipeline exceeded MAX_READ_CMD_US
	// waiting for a full frame.
	ReadTimeout
	// WriteTimeout means the byte pipeline exceeded MAX_WRITE_CMD_US
	// waiting for a non-blocking write to succeed.
	WriteTimeout
	// Transmit wraps an error returned directly by the byte transport.
	Transmit
	// Parse wraps a frame-codec decode error.
	Parse
	// ParseLoggedPoint wraps a LOCUS stream decode error.
	ParseLoggedPoint
)

func (k Kind) String() string {
	switch k {
	case Protocol:
		return "Protocol"
	case GpsSaysInvalidCommand:
		return "GpsSaysInvalidCommand"
	case GpsSaysUnsupportedCommand:
		return "GpsSaysUnsupportedCommand"
	case GpsSaysActionFailed:
		return "GpsSaysActionFailed"
	case BootFailed:
		return "BootFailed"
	case ReadTimeout:
		return "ReadTimeout"
	case WriteTimeout:
		return "WriteTimeout"
	case Transmit:
		return "Transmit"
	case Parse:
		return "Parse"
	case ParseLoggedPoint:
		return "ParseLoggedPoint"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type returned by pmtk. It carries a
// Kind so callers can branch on it with errors.As, and an optional wrapped
// cause preserved via github.com/pkg/errors so %+v prints a stack trace.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New builds an Error of the given Kind with a message. Its cause is a
// fresh pkg/errors error carrying the same message and a stack trace.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.New(message)}
}

// Wrap builds an Error of the given Kind wrapping cause, preserving its
// stack trace via pkg/errors.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.Wrap(cause, message)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As/errors.Unwrap.
// Error has no Cause method, so github.com/pkg/errors.Cause stops at the
// *Error itself.
func (e *Error) Unwrap() error { return e.cause }

// Format forwards to the wrapped cause so %+v yields a stack trace when one
// is available, matching the behavior teacher code expects from
// pkg/errors-wrapped values.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') && e.cause != nil {
		fmt.Fprintf(s, "%s: %+v", e.Kind, e.cause)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, mtkerrors.New(mtkerrors.Protocol, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// retryable enumerates the spec's exact retry policy: Protocol,
// ReadTimeout, WriteTimeout, and Parse are retried by the command
// transactor; device-reported logical failures and transport errors are
// not.
var retryable = map[Kind]bool{
	Protocol:     true,
	ReadTimeout:  true,
	WriteTimeout: true,
	Parse:        true,
}

// IsRetryable reports whether err's Kind is one the command transactor's
// bounded retry loop (pmtk's sendMtk / sendMtkForReply) should retry. It
// returns false for any error that is not an *Error, matching the policy
// that unrecognized errors surface immediately.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return retryable[e.Kind]
}

// KindOf extracts the Kind from err, returning ok=false if err is not (or
// does not wrap) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}
