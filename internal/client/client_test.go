package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/sockhttp/internal/session"
	"github.com/five82/sockhttp/internal/sockettest"
)

func dial(t *testing.T, path string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Abort() })
	return c
}

func waitClosed(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not observe peer close")
	}
}

func TestSend_SimpleRequest(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c := dial(t, srv.Path)

	resp, err := c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []byte("Hello alice"), resp.Body)
}

func TestSend_NotFoundIsApplicationFailure(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c := dial(t, srv.Path)

	resp, err := c.Send(context.Background(), "/missing", http.MethodGet, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, []byte("not found"), statusErr.Body)
	require.Equal(t, KindUnknown, KindOf(err))
	require.Zero(t, resp)
}

func TestSend_SequentialRequestsStayMatched(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c := dial(t, srv.Path)

	for i := range 20 {
		name := fmt.Sprintf("alice%d", i)
		resp, err := c.Send(context.Background(), "/"+name, http.MethodGet, nil, nil)
		require.NoError(t, err)
		require.Equal(t, "Hello "+name, string(resp.Body))
	}
}

func TestSend_HeadersAndBody(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c := dial(t, srv.Path)

	resp, err := c.Send(context.Background(), "/headers", http.MethodGet, []Header{
		{Name: "Host", Value: "localhost"},
		{Name: "X-Tag", Value: "one"},
		{Name: "X-Tag", Value: "two"},
	}, nil)
	require.NoError(t, err)

	var got map[string][]string
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	require.Equal(t, []string{"localhost"}, got["Host"])
	require.Equal(t, []string{"one", "two"}, got["X-Tag"])
	require.Equal(t, []string{defaultUserAgent}, got["User-Agent"])

	resp, err = c.Send(context.Background(), "/echo", http.MethodPost, nil, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "ping", string(resp.Body))
}

func TestSend_BuildFailureIsNeverSent(t *testing.T) {
	var hits atomic.Int32
	srv := sockettest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	c := dial(t, srv.Path)

	_, err := c.Send(context.Background(), "/x", http.MethodGet, []Header{{Name: "X-Bad", Value: "a\r\nb"}}, nil)
	require.Equal(t, KindBuild, KindOf(err))
	require.Zero(t, hits.Load())

	resp, err := c.Send(context.Background(), "/x", http.MethodGet, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.EqualValues(t, 1, hits.Load())
}

func TestDial_ServerNotStarted(t *testing.T) {
	_, err := Dial(context.Background(), filepath.Join(t.TempDir(), "none.sock"))
	require.Equal(t, KindConnect, KindOf(err))
}

func TestSend_ServerStoppedThenReconnect(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c, err := Dial(context.Background(), srv.Path)
	require.NoError(t, err)

	srv.Close()
	waitClosed(t, c)

	_, err = c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.Equal(t, KindSend, KindOf(err))
	require.True(t, IsClosed(err))

	srv.Restart(t)
	c, err = c.Reconnect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Abort() })

	resp, err := c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello alice", string(resp.Body))
}

func TestSend_ServerRebootedThenReconnect(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c, err := Dial(context.Background(), srv.Path)
	require.NoError(t, err)

	srv.Restart(t)
	waitClosed(t, c)

	_, err = c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.True(t, IsClosed(err))

	c, err = c.Reconnect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Abort() })

	resp, err := c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello alice", string(resp.Body))
}

func TestReconnect_WithoutListener(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c, err := Dial(context.Background(), srv.Path)
	require.NoError(t, err)

	srv.Close()
	_, err = c.Reconnect(context.Background())
	require.Equal(t, KindConnect, KindOf(err))

	_, err = c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.True(t, IsClosed(err))
}

func TestAbort_ConsumesClient(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c, err := Dial(context.Background(), srv.Path)
	require.NoError(t, err)

	require.NoError(t, c.Abort())

	_, err = c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.Equal(t, KindSend, KindOf(err))
	require.True(t, IsClosed(err))
}

func TestSend_InformationalResponseIsSkipped(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c := dial(t, srv.Path)

	resp, err := c.Send(context.Background(), "/early", http.MethodPost, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "early-final", string(resp.Body))

	resp, err = c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello alice", string(resp.Body))
}

func TestSend_TruncatedBodyIsCollectFailure(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c := dial(t, srv.Path)

	_, err := c.Send(context.Background(), "/truncated", http.MethodGet, nil, nil)
	require.Equal(t, KindCollect, KindOf(err))
	require.True(t, IsClosed(err))

	waitClosed(t, c)
	_, err = c.Send(context.Background(), "/alice", http.MethodGet, nil, nil)
	require.Equal(t, KindSend, KindOf(err))
	require.True(t, IsClosed(err))
}

func TestDialError_Mapping(t *testing.T) {
	handshake := &session.OpError{Op: session.OpHandshake, Path: "/x.sock", Err: fmt.Errorf("set read buffer")}
	require.Equal(t, KindHandshake, KindOf(dialError(handshake)))
	require.ErrorIs(t, dialError(handshake), handshake)

	connect := &session.OpError{Op: session.OpConnect, Path: "/x.sock", Err: fmt.Errorf("refused")}
	require.Equal(t, KindConnect, KindOf(dialError(connect)))

	collect := &session.OpError{Op: session.OpCollect, Path: "/x.sock", Err: fmt.Errorf("eof")}
	require.Equal(t, KindCollect, KindOf(roundTripError(collect)))
	require.Equal(t, KindSend, KindOf(roundTripError(&session.OpError{Op: session.OpRead})))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "send request", KindSend.String())
	require.Equal(t, "unknown", Kind(99).String())
	err := &Error{Kind: KindCollect, Err: fmt.Errorf("boom")}
	require.Equal(t, "collect response: boom", err.Error())
}
