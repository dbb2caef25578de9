package state

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Result is one completed exchange, successful or not at the HTTP level.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Result              Result
	HasResult           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
	Reconnects          int
}

// IsOffline returns true when the socket has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the outcome of one poll. When err is non-nil the previous
// result is kept but the error is recorded for visibility.
func (s *Store) Update(result *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if result != nil {
		s.snapshot.Result = cloneResult(*result)
		s.snapshot.HasResult = true
	} else {
		s.snapshot.Result = Result{}
		s.snapshot.HasResult = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// RecordReconnect counts a successful reconnect.
func (s *Store) RecordReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Reconnects++
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Result = cloneResult(s.snapshot.Result)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneResult(r Result) Result {
	dup := r
	dup.Header = r.Header.Clone()
	if r.Body != nil {
		dup.Body = append([]byte(nil), r.Body...)
	}
	return dup
}
