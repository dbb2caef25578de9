package client

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/sockhttp/internal/session"
	"github.com/five82/sockhttp/internal/wire"
)

// Header is one request header; see wire.Header.
type Header = wire.Header

// Sender is the raw send operation. *Client implements it.
type Sender interface {
	Send(ctx context.Context, endpoint, method string, headers []Header, body []byte) (Response, error)
}

// Ensure Client implements Sender at compile time.
var _ Sender = (*Client)(nil)

// Response is a successful exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues requests over one unix socket session.
type Client struct {
	sess *session.Session
	cfg  config
}

const defaultUserAgent = "sockhttp/0.1"

// Option configures Dial.
type Option func(*config)

type config struct {
	logger     *zap.Logger
	userAgent  string
	bufferSize int
}

// WithLogger sets the logger used by the client and its session.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent sent when the caller supplies none. An
// empty value leaves net/http's default in place.
func WithUserAgent(ua string) Option {
	return func(c *config) { c.userAgent = strings.TrimSpace(ua) }
}

// WithBufferSize sets the session buffer size.
func WithBufferSize(n int) Option {
	return func(c *config) { c.bufferSize = n }
}

// Dial connects to the socket at path.
func Dial(ctx context.Context, path string, opts ...Option) (*Client, error) {
	cfg := config{logger: zap.NewNop(), userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&cfg)
	}
	sess, err := session.Dial(ctx, path,
		session.WithLogger(cfg.logger),
		session.WithBufferSize(cfg.bufferSize),
	)
	if err != nil {
		return nil, dialError(err)
	}
	return &Client{sess: sess, cfg: cfg}, nil
}

// Send issues one request and waits for its response. A 2xx status returns
// the buffered body; any other status returns a *StatusError; transport and
// protocol failures return an *Error. Only one Send may be outstanding.
func (c *Client) Send(ctx context.Context, endpoint, method string, headers []Header, body []byte) (Response, error) {
	if c.cfg.userAgent != "" && !hasHeader(headers, "User-Agent") {
		headers = append(slices.Clip(headers), Header{Name: "User-Agent", Value: c.cfg.userAgent})
	}

	req, err := wire.BuildRequest(ctx, method, endpoint, headers, body)
	if err != nil {
		return Response{}, &Error{Kind: KindBuild, Err: err}
	}

	resp, err := c.sess.RoundTrip(ctx, req)
	if err != nil {
		return Response{}, roundTripError(err)
	}
	if !resp.Success() {
		return Response{}, &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// Reconnect replaces c with a client on a fresh session to the same socket.
// c cannot be used afterwards, whether or not the new dial succeeds.
func (c *Client) Reconnect(ctx context.Context) (*Client, error) {
	sess, err := c.sess.Reconnect(ctx)
	if err != nil {
		return nil, dialError(err)
	}
	c.cfg.logger.Info("reconnected", zap.String("socket", sess.Path()))
	return &Client{sess: sess, cfg: c.cfg}, nil
}

// Abort stops the session and returns its termination cause, if it had one
// before the abort. c cannot be used afterwards.
func (c *Client) Abort() error { return c.sess.Abort() }

// Path returns the socket path.
func (c *Client) Path() string { return c.sess.Path() }

// Done is closed once the session has stopped.
func (c *Client) Done() <-chan struct{} { return c.sess.Done() }

// Err returns the session termination cause once it has stopped.
func (c *Client) Err() error { return c.sess.Err() }

func hasHeader(headers []Header, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}
