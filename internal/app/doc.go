// Package app wires configuration, logging, the socket client and the watch
// view into sockctl's two modes.
//
// # Probe
//
// Probe dials the socket, sends one request, prints the status line and
// body, and reports whether the status was 2xx. With a codec selected the
// request body is read as JSON, re-encoded with that codec, and the answer
// is decoded and printed as indented JSON:
//
//	ok, err := app.Probe(ctx, app.Options{
//		SocketPath: "/run/sockhttp/api.sock",
//		Codec:      "cbor",
//		Request:    app.Request{Method: "POST", Endpoint: "/json", Body: []byte(`{"name":"alice"}`)},
//	})
//
// # Watch
//
// Run starts a Poller and the ui package's view. The poller sends the same
// request every poll interval and records each outcome in a state.Store.
// Only transport and protocol failures count as failures; a non-2xx answer
// is a normal result.
//
// Failures back off exponentially from the poll interval:
//
//	interval × 2^failures, capped at 30s
//
// When a failure reports a closed session (client.IsClosed), the poller
// replaces its client with Reconnect before the next attempt. If no client
// exists yet, for example because the daemon was not running at startup, the
// next poll dials fresh.
//
// Each poll runs under its own deadline of max(interval, 5s). A deadline that
// expires tears the session down, and the reconnect path above brings it back.
//
// # Logging
//
// Probe logs to stderr per the [log] config table. Run owns the terminal, so
// it only logs when a log file is configured.
package app
