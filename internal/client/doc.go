// Package client issues HTTP requests over a unix domain socket.
//
// # Overview
//
// A Client owns exactly one session (see package session) on one socket
// path. Requests are strictly sequential: the wire protocol is HTTP/1.1
// without pipelining, so a response always belongs to the request that is
// currently outstanding. A second Send issued while one is still running is
// rejected rather than queued.
//
// # Client Usage
//
//	c, err := client.Dial(ctx, "/run/sockhttp/api.sock")
//	if err != nil {
//		return fmt.Errorf("dial: %w", err)
//	}
//	defer c.Abort()
//
//	resp, err := c.Send(ctx, "/api/status", http.MethodGet, nil, nil)
//
// # Outcomes
//
// Every Send produces exactly one of:
//
//   - a Response with a 2xx status and the full body
//   - a *StatusError carrying a non-2xx status and the full body
//   - an *Error carrying a Kind (connect, handshake, build request, send
//     request, collect response) and the underlying cause
//
// Bodies are always buffered completely before Send returns. There is no
// streaming; the traffic this package targets is small control-plane JSON.
//
// # Reconnecting
//
// Nothing reconnects automatically. When the daemon restarts, the session
// reader sees the socket close and the next Send fails with KindSend. Use
// IsClosed to recognise that case and swap the client:
//
//	resp, err := c.Send(ctx, "/api/status", http.MethodGet, nil, nil)
//	if client.IsClosed(err) {
//		c, err = c.Reconnect(ctx)
//	}
//
// Reconnect consumes the old client. Any later call on it fails with
// session.ErrConsumed, which IsClosed also reports.
//
// # Deadlines
//
// Send has no timeout of its own. A context deadline that expires
// mid-exchange tears the session down. A late response could otherwise be
// matched to the next request, so the caller has to Reconnect after a
// timeout.
//
// # Request Construction
//
// The socket has no host, so every URL uses the placeholder authority
// "unix.socket". Headers are applied in order and duplicates are all sent.
// A Host header overrides the placeholder. Invalid header names or values
// fail with KindBuild before anything touches the socket.
package client
