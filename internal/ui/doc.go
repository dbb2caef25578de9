// Package ui renders sockctl's watch view with Bubble Tea.
//
// The view is read-only. A header shows the socket, the request being
// polled and the latest outcome: a status chip colored by class, the
// latency, and the reconnect count. The body below is a scrollable
// viewport. In pretty mode it lists the response headers and re-indents
// JSON and CBOR bodies using the codec registry.
//
// The model never talks to the socket. It reads state.Store snapshots on its
// own tick, so a stalled daemon cannot freeze the terminal.
//
// Keys:
//
//	j/k, up/down, pgup/pgdn   scroll
//	g/G                       top/bottom
//	p                         toggle pretty/raw
//	T                         cycle theme
//	q, ctrl+c                 quit
//
// Theme and pretty mode are saved through package prefs whenever they change.
package ui
