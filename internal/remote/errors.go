package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the upstream has no record with the requested id.
// Callers treat this as an absent result, not a failure.
var ErrNotFound = errors.New("record not found")

// TransportError wraps a network or HTTP-level failure: connection refused,
// timeout, or a non-success status with no usable envelope.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is an application-level rejection: the upstream answered with
// success:false and a message.
type RemoteError struct {
	Resource string
	Message  string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote rejected %s request", e.Resource)
	}
	return fmt.Sprintf("remote rejected %s request: %s", e.Resource, e.Message)
}
