// Package sockettest runs an HTTP server on a unix socket for tests.
package sockettest

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Server serves a handler on a socket under a temporary directory. The path
// stays fixed across Restart so clients can reconnect to it.
type Server struct {
	Path string

	handler http.Handler
	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
}

// NewServer starts h on a fresh socket. A nil handler serves Handler().
// The server is closed when the test ends.
func NewServer(t testing.TB, h http.Handler) *Server {
	t.Helper()
	if h == nil {
		h = Handler()
	}
	// sun_path is limited to ~104 bytes, so avoid t.TempDir's long names.
	dir, err := os.MkdirTemp("", "sockhttp")
	if err != nil {
		t.Fatalf("create socket dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	s := &Server{Path: filepath.Join(dir, "test.sock"), handler: h}
	s.start(t)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) start(t testing.TB) {
	t.Helper()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("remove stale socket: %v", err)
	}
	l, err := net.Listen("unix", s.Path)
	if err != nil {
		t.Fatalf("listen %s: %v", s.Path, err)
	}
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(l) }()

	s.mu.Lock()
	s.srv, s.ln = srv, l
	s.mu.Unlock()
}

// Close stops the listener and drops every open connection. The listener is
// closed here rather than left to Serve, which may not have tracked it yet;
// closing it unlinks the socket file before Close returns.
func (s *Server) Close() {
	s.mu.Lock()
	srv, ln := s.srv, s.ln
	s.srv, s.ln = nil, nil
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	if srv != nil {
		_ = srv.Close()
	}
}

// Restart closes the server and listens again on the same path.
func (s *Server) Restart(t testing.TB) {
	t.Helper()
	s.Close()
	s.start(t)
}

// Handler returns the routes the package tests talk to:
//
//	GET  /missing     404 "not found"
//	GET  /{name}      200 "Hello {name}"
//	GET  /json/{name} 200 {"hello": name}
//	POST /json        200 {"hello": name}, or 400 {"msg": "bad request"} without a name
//	POST /echo        200 echoing body and Content-Type
//	GET  /headers     200 JSON object of the received headers
//	GET  /stall       blocks until the client goes away
//	POST /early       103 Early Hints, then 200 "early-final"
//	GET  /truncated   promises a 64 byte body, sends 7 bytes and hangs up
//	anything else     404 {"msg": "not found"}
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "not found")
	})
	mux.HandleFunc("GET /{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Hello "+r.PathValue("name"))
	})
	mux.HandleFunc("GET /json/{name}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"hello": r.PathValue("name")})
	})
	mux.HandleFunc("POST /json", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad request"})
			return
		}
		name, ok := in["name"].(string)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad request"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"hello": name})
	})
	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		_, _ = w.Write(body)
	})
	mux.HandleFunc("GET /headers", func(w http.ResponseWriter, r *http.Request) {
		out := map[string][]string{"Host": {r.Host}}
		for k, v := range r.Header {
			out[k] = v
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /stall", func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	mux.HandleFunc("POST /early", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", "</style.css>; rel=preload")
		w.WriteHeader(http.StatusEarlyHints)
		w.Header().Del("Link")
		_, _ = io.WriteString(w, "early-final")
	})
	mux.HandleFunc("GET /truncated", func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, rw, err := hj.Hijack()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = rw.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 64\r\n\r\npartial")
		_ = rw.Flush()
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "not found"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
