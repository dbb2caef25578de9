package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/five82/sockhttp/internal/wire"
)

// Session is one live connection to a unix socket. The request writer and
// the background reader are created by Dial and torn down together.
type Session struct {
	path string
	dial []Option
	log  *zap.Logger

	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer

	handoff  chan *exchange
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	mu      sync.Mutex
	reason  error // first failure that tore the session down from the caller side
	aborted bool
	cause   error // written once, before done is closed

	consumed atomic.Bool
	inflight atomic.Bool
}

type exchange struct {
	req    *http.Request
	result chan outcome
}

type outcome struct {
	resp *wire.Response
	err  error
}

// Dial connects to the socket at path and starts the session reader. The
// attempt is made once; retry policy belongs to the caller.
func Dial(ctx context.Context, path string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, &OpError{Op: OpConnect, Path: path, Err: err}
	}

	br, bw, err := handshake(conn, o)
	if err != nil {
		_ = conn.Close()
		return nil, &OpError{Op: OpHandshake, Path: path, Err: err}
	}

	s := &Session{
		path:    path,
		dial:    opts,
		log:     o.logger.With(zap.String("socket", path)),
		conn:    conn,
		br:      br,
		bw:      bw,
		handoff: make(chan *exchange),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.readLoop()

	s.log.Debug("session established")
	return s, nil
}

func handshake(conn net.Conn, o options) (*bufio.Reader, *bufio.Writer, error) {
	if err := conn.SetDeadline(time.Time{}); err != nil {
		return nil, nil, fmt.Errorf("reset deadline: %w", err)
	}
	size := o.bufferSize
	if size <= 0 {
		size = defaultBufferSize
	} else if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.SetReadBuffer(size); err != nil {
			return nil, nil, fmt.Errorf("set read buffer: %w", err)
		}
		if err := uc.SetWriteBuffer(size); err != nil {
			return nil, nil, fmt.Errorf("set write buffer: %w", err)
		}
	}
	return bufio.NewReaderSize(conn, size), bufio.NewWriterSize(conn, size), nil
}

// Path returns the socket path the session was dialed with.
func (s *Session) Path() string { return s.path }

// Done is closed once the reader has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Alive reports whether the reader is still running.
func (s *Session) Alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Err returns the termination cause once the reader has stopped, and nil
// while it is running. It does not consume the handle.
func (s *Session) Err() error {
	if s.Alive() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// Abort cancels the reader and waits for it to exit. If the reader had
// already stopped on its own, its cause is returned; if cancellation got
// there first the result is nil. The handle cannot be used afterwards.
func (s *Session) Abort() error {
	if !s.consumed.CompareAndSwap(false, true) {
		return ErrConsumed
	}
	if s.Alive() {
		s.shutdown(nil, true)
		<-s.done
	}
	cause := s.Err()
	s.log.Debug("session aborted", zap.NamedError("cause", cause))
	return cause
}

// Reconnect aborts s and dials the same path with the same options. The old
// handle is consumed even when the new dial fails.
func (s *Session) Reconnect(ctx context.Context) (*Session, error) {
	if err := s.Abort(); errors.Is(err, ErrConsumed) {
		return nil, &OpError{Op: OpConnect, Path: s.path, Err: err}
	}
	return Dial(ctx, s.path, s.dial...)
}

// RoundTrip writes req and waits for the matching response, fully buffered.
// Only one round trip may be outstanding; a second concurrent call fails
// with ErrBusy. If ctx ends before the response is complete the session is
// torn down, since a late response could otherwise be paired with the next
// request.
func (s *Session) RoundTrip(ctx context.Context, req *http.Request) (*wire.Response, error) {
	if s.consumed.Load() {
		return nil, s.opErr(OpWrite, ErrConsumed)
	}
	if !s.inflight.CompareAndSwap(false, true) {
		return nil, s.opErr(OpWrite, ErrBusy)
	}
	defer s.inflight.Store(false)

	if !s.Alive() {
		return nil, s.opErr(OpWrite, s.closedErr())
	}
	if err := ctx.Err(); err != nil {
		return nil, s.opErr(OpWrite, err)
	}

	stop := context.AfterFunc(ctx, func() { s.shutdown(ctx.Err(), false) })
	defer stop()

	if err := wire.WriteRequest(s.bw, req); err != nil {
		s.shutdown(err, false)
		return nil, s.opErr(OpWrite, s.explain(err))
	}

	ex := &exchange{req: req, result: make(chan outcome, 1)}
	select {
	case s.handoff <- ex:
	case <-s.done:
		return nil, s.opErr(OpWrite, s.closedErr())
	}

	select {
	case out := <-ex.result:
		stop()
		return out.resp, out.err
	case <-s.done:
		select {
		case out := <-ex.result:
			return out.resp, out.err
		default:
		}
		return nil, s.opErr(OpWrite, s.closedErr())
	}
}

func (s *Session) readLoop() {
	err := s.serve()
	s.settle(err)
	close(s.done)
	_ = s.conn.Close()
	s.log.Debug("session reader stopped", zap.Error(err))
}

// serve keeps a read pending at all times so a peer close is seen even
// while no request is outstanding.
func (s *Session) serve() error {
	for {
		if _, err := s.br.Peek(1); err != nil {
			return err
		}

		var ex *exchange
		select {
		case ex = <-s.handoff:
		case <-s.quit:
			return net.ErrClosed
		}

		head, err := wire.ReadHead(s.br, ex.req)
		if err != nil {
			ex.result <- outcome{err: s.opErr(OpRead, s.explain(err))}
			return err
		}
		resp, err := wire.Collect(head)
		if err != nil {
			ex.result <- outcome{err: s.opErr(OpCollect, s.explain(err))}
			return err
		}
		ex.result <- outcome{resp: resp}
	}
}

func (s *Session) settle(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.aborted:
		s.cause = nil
	case s.reason != nil:
		s.cause = &ClosedError{Cause: s.reason}
	case errors.Is(err, io.EOF):
		s.cause = &ClosedError{}
	default:
		s.cause = &ClosedError{Cause: err}
	}
}

// shutdown stops the reader. reason is kept as the termination cause unless
// the shutdown is an abort.
func (s *Session) shutdown(reason error, abort bool) {
	s.mu.Lock()
	if abort {
		s.aborted = true
	} else if s.reason == nil {
		s.reason = reason
	}
	s.mu.Unlock()

	s.quitOnce.Do(func() { close(s.quit) })
	_ = s.conn.Close()
}

// explain replaces the raw I/O error seen after a teardown with the reason
// for that teardown.
func (s *Session) explain(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.aborted:
		return &ClosedError{}
	case s.reason != nil:
		return &ClosedError{Cause: s.reason}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &ClosedError{Cause: err}
	}
	return err
}

func (s *Session) closedErr() error {
	if err := s.Err(); err != nil {
		return err
	}
	return &ClosedError{}
}

func (s *Session) opErr(op Op, err error) *OpError {
	return &OpError{Op: op, Path: s.path, Err: err}
}
