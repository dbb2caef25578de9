// Package wire frames HTTP/1.1 requests and responses for a unix socket
// session. It is a thin layer over net/http's own request writer and
// response parser.
package wire

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Authority is the placeholder host placed in every request URL. A unix
// socket has no host or port, so the peer only ever sees this value unless
// the caller sends its own Host header.
const Authority = "unix.socket"

// Header is a single request header. Order is preserved and duplicates are
// all sent.
type Header struct {
	Name  string
	Value string
}

// Response is a fully buffered response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Success reports whether the status code is in the 2xx range.
func (r *Response) Success() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// BuildRequest assembles a request for endpoint on the synthetic authority.
// Nothing is written anywhere; a returned error means the request can never
// be transmitted.
func BuildRequest(ctx context.Context, method, endpoint string, headers []Header, body []byte) (*http.Request, error) {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if body == nil {
		body = []byte{}
	}
	req, err := http.NewRequestWithContext(ctx, method, "http://"+Authority+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for _, h := range headers {
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return nil, fmt.Errorf("invalid header name %q", h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return nil, fmt.Errorf("invalid value for header %q", h.Name)
		}
		if http.CanonicalHeaderKey(h.Name) == "Host" {
			req.Host = h.Value
			continue
		}
		req.Header.Add(h.Name, h.Value)
	}
	return req, nil
}

// WriteRequest serializes req onto w and flushes it.
func WriteRequest(w *bufio.Writer, req *http.Request) error {
	if err := req.Write(w); err != nil {
		return err
	}
	return w.Flush()
}

// ReadHead parses the status line and headers of the final response to req.
// Informational 1xx heads that precede it carry no body and are discarded;
// 101 Switching Protocols is final.
func ReadHead(r *bufio.Reader, req *http.Request) (*http.Response, error) {
	for {
		resp, err := http.ReadResponse(r, req)
		if err != nil {
			return nil, err
		}
		if !informational(resp.StatusCode) {
			return resp, nil
		}
		_ = resp.Body.Close()
	}
}

func informational(code int) bool {
	return code >= 100 && code < 200 && code != http.StatusSwitchingProtocols
}

// Collect buffers the whole body of resp and closes it.
func Collect(resp *http.Response) (*Response, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
