package backup

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind string

const (
	// KindUnavailable: the capability was never configured, typically for
	// lack of credentials.
	KindUnavailable Kind = "unavailable"
	// KindTransport: the upstream API could not be reached or answered with a
	// non-success status.
	KindTransport Kind = "transport_failure"
	// KindService: a storage or inference call failed.
	KindService Kind = "service_failure"
)

// Error is the failure arm of every operation result.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func unavailable(op, what string) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Message: what + " not available"}
}

func transportFailure(op, message string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}

func serviceFailure(op, message string, err error) *Error {
	return &Error{Kind: KindService, Op: op, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}

// KindOf reports the kind of err and whether it is one of the known
// operation failures.
func KindOf(err error) (Kind, bool) {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Kind, true
	}
	return "", false
}
