package session

import (
	"errors"
	"fmt"
)

// Op names the stage of a session operation that failed.
type Op string

const (
	OpConnect   Op = "connect"
	OpHandshake Op = "handshake"
	OpWrite     Op = "write request"
	OpRead      Op = "read response"
	OpCollect   Op = "collect body"
)

var (
	// ErrClosed matches every *ClosedError.
	ErrClosed = errors.New("session closed")
	// ErrConsumed is returned by any call on a handle that was aborted or
	// replaced by Reconnect.
	ErrConsumed = errors.New("session handle consumed")
	// ErrBusy is returned when a round trip is started while another one is
	// still outstanding on the same handle.
	ErrBusy = errors.New("request already in flight")
)

// OpError records which stage failed and on which socket.
type OpError struct {
	Op   Op
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// ClosedError is the termination cause of a session's reader. Cause is nil
// when the peer closed the stream cleanly.
type ClosedError struct {
	Cause error
}

func (e *ClosedError) Error() string {
	if e.Cause == nil {
		return ErrClosed.Error()
	}
	return ErrClosed.Error() + ": " + e.Cause.Error()
}

func (e *ClosedError) Unwrap() error { return e.Cause }

func (e *ClosedError) Is(target error) bool { return target == ErrClosed }
