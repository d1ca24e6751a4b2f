package capability

import (
	"fmt"

	"github.com/mediakit/mediakit/errors"
)

// ErrorKind classifies a capability failure.
type ErrorKind string

const (
	// InputRejected means the capability could not accept its input.
	InputRejected ErrorKind = "input_rejected"
	// ResourceUnavailable means a backing resource (model server, codec,
	// device) was not available.
	ResourceUnavailable ErrorKind = "resource_unavailable"
	// InternalFailure means the capability failed internally.
	InternalFailure ErrorKind = "internal_failure"
)

// Error is the failure a capability reports to the scheduler. It is never
// swallowed; the scheduler decides skip/propagate semantics.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Capability names the failing capability.
	Capability string
	// Message is a human-readable description.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capability %s: %s: %s (cause: %v)", e.Capability, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("capability %s: %s: %s", e.Capability, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code maps the error kind onto the engine-wide error code taxonomy.
func (e *Error) Code() errors.ErrorCode {
	switch e.Kind {
	case InputRejected:
		return errors.ErrCodeInputRejected
	case ResourceUnavailable:
		return errors.ErrCodeResourceUnavailable
	}
	return errors.ErrCodeInternalFailure
}

// Errf builds a capability Error with a formatted message.
func Errf(kind ErrorKind, capability, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Capability: capability,
		Message:    fmt.Sprintf(format, args...),
	}
}

// KindOf extracts the ErrorKind from err, or InternalFailure when err is
// not a capability error.
func KindOf(err error) ErrorKind {
	var capErr *Error
	if errors.As(err, &capErr) {
		return capErr.Kind
	}
	return InternalFailure
}
