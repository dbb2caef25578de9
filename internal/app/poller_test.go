package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/five82/sockhttp/internal/client"
	"github.com/five82/sockhttp/internal/sockettest"
	"github.com/five82/sockhttp/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestPoller_RecordsSuccessAndStatusAnswers(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	store := &state.Store{}
	p := NewPoller(store, srv.Path, Request{Method: http.MethodGet, Endpoint: "/alice"}, time.Second, nil)
	t.Cleanup(p.close)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	snap := store.Snapshot()
	if !snap.HasResult || snap.Result.StatusCode != http.StatusOK || string(snap.Result.Body) != "Hello alice" {
		t.Fatalf("snapshot = %+v, want 200 Hello alice", snap.Result)
	}

	p.req.Endpoint = "/missing"
	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh returned error for 404: %v", err)
	}
	snap = store.Snapshot()
	if snap.Result.StatusCode != http.StatusNotFound || snap.ConsecutiveFailures != 0 {
		t.Fatalf("snapshot = %+v, want 404 without failures", snap)
	}
}

func TestPoller_ReconnectsAfterServerRestart(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	store := &state.Store{}
	p := NewPoller(store, srv.Path, Request{Method: http.MethodGet, Endpoint: "/bob"}, time.Second, nil)
	t.Cleanup(p.close)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}

	srv.Restart(t)
	select {
	case <-p.client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not observe restart")
	}

	err := p.refresh(context.Background())
	if !client.IsClosed(err) {
		t.Fatalf("refresh error = %v, want closed session", err)
	}
	if got := store.Snapshot().Reconnects; got != 1 {
		t.Fatalf("Reconnects = %d, want 1", got)
	}

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh after reconnect returned error: %v", err)
	}
	if snap := store.Snapshot(); string(snap.Result.Body) != "Hello bob" || snap.ConsecutiveFailures != 0 {
		t.Fatalf("snapshot = %+v, want Hello bob and no failures", snap)
	}
}

func TestPoller_DialsLazilyUntilSocketExists(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	srv.Close()

	store := &state.Store{}
	p := NewPoller(store, srv.Path, Request{Method: http.MethodGet, Endpoint: "/carol"}, time.Second, nil)
	t.Cleanup(p.close)

	err := p.refresh(context.Background())
	if client.KindOf(err) != client.KindConnect {
		t.Fatalf("refresh error = %v, want connect failure", err)
	}
	if err := p.refresh(context.Background()); err == nil {
		t.Fatal("second refresh succeeded without a listener")
	}
	if !store.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = false after two failed polls")
	}

	srv.Restart(t)
	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh returned error after listener appeared: %v", err)
	}
	if got := store.Snapshot().Reconnects; got != 0 {
		t.Fatalf("Reconnects = %d, want 0 for the first dial", got)
	}
}

func TestPoller_StartStopsWithContext(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	store := &state.Store{}
	p := NewPoller(store, srv.Path, Request{Method: http.MethodGet, Endpoint: "/dave"}, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)

	deadline := time.After(2 * time.Second)
	for !store.Snapshot().HasResult {
		select {
		case <-deadline:
			t.Fatal("poller never recorded a result")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	if p.client != nil {
		t.Fatal("poller kept its client after stopping")
	}
}
