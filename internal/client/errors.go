package client

import (
	"errors"
	"fmt"

	"github.com/five82/sockhttp/internal/session"
)

// Kind classifies internal (transport or protocol level) failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnect
	KindHandshake
	KindBuild
	KindSend
	KindCollect
	KindEncode
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindHandshake:
		return "handshake"
	case KindBuild:
		return "build request"
	case KindSend:
		return "send request"
	case KindCollect:
		return "collect response"
	case KindEncode:
		return "encode request"
	case KindDecode:
		return "decode response"
	default:
		return "unknown"
	}
}

// Error is an internal failure: the exchange did not produce a response the
// caller can act on.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusError is an application failure: the peer answered with a status
// outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unsuccessful response: status %d", e.StatusCode)
}

// KindOf returns the Kind of an internal failure, or KindUnknown when err is
// not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsClosed reports whether err was caused by a session that is closed,
// cancelled or already consumed. Such a client should be replaced with
// Reconnect.
func IsClosed(err error) bool {
	return errors.Is(err, session.ErrClosed) || errors.Is(err, session.ErrConsumed)
}

func dialError(err error) *Error {
	var opErr *session.OpError
	if errors.As(err, &opErr) && opErr.Op == session.OpHandshake {
		return &Error{Kind: KindHandshake, Err: err}
	}
	return &Error{Kind: KindConnect, Err: err}
}

func roundTripError(err error) *Error {
	var opErr *session.OpError
	if errors.As(err, &opErr) && opErr.Op == session.OpCollect {
		return &Error{Kind: KindCollect, Err: err}
	}
	return &Error{Kind: KindSend, Err: err}
}
