// Package session supervises one HTTP/1.1 connection over a unix socket.
//
// # Reader
//
// Dial starts a background reader that keeps a one byte peek pending on the
// socket at all times. A peer close is therefore noticed between requests,
// not only when the next request is written. When a request is outstanding
// the reader takes its exchange from an unbuffered handoff, parses the
// response head (skipping informational 1xx heads), buffers the body and
// hands the result back.
//
// # Termination
//
// The reader stops exactly once: on a peer close, on an I/O or protocol
// failure, when a round trip's context ends, or on Abort. The cause is
// recorded before Done is closed and never changes afterwards. Err returns
// it without consuming the handle. Every cause matches ErrClosed except an
// abort, which leaves no cause at all.
//
// # Consumption
//
// Abort and Reconnect consume the handle. Any later call on it fails with
// ErrConsumed. Reconnect consumes the handle even when the new dial fails,
// so the caller always moves on to the returned session or dials again.
//
// Only one RoundTrip may be outstanding at a time; a concurrent call fails
// with ErrBusy instead of queueing.
package session
