package payload

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/sockhttp/internal/client"
	"github.com/five82/sockhttp/internal/codec"
	"github.com/five82/sockhttp/internal/sockettest"
)

type greeting struct {
	Hello string `json:"hello" cbor:"hello"`
}

type nameRequest struct {
	Name string `json:"name,omitempty"`
}

type apiError struct {
	Msg string `json:"msg"`
}

func dial(t *testing.T, h http.Handler) *client.Client {
	t.Helper()
	srv := sockettest.NewServer(t, h)
	c, err := client.Dial(context.Background(), srv.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Abort() })
	return c
}

func TestSendJSON_Get(t *testing.T) {
	c := dial(t, nil)

	status, out, err := SendJSON[struct{}, greeting, apiError](context.Background(), c, "/json/alice", http.MethodGet, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, greeting{Hello: "alice"}, out)
}

func TestSendJSON_TypedErrorPayload(t *testing.T) {
	c := dial(t, nil)

	status, out, err := SendJSON[struct{}, greeting, apiError](context.Background(), c, "/json/alice/nop", http.MethodGet, nil, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Zero(t, out)

	var statusErr *StatusError[apiError]
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, "not found", statusErr.Payload.Msg)
	require.Equal(t, client.KindUnknown, client.KindOf(err))
}

func TestSendJSON_Post(t *testing.T) {
	c := dial(t, nil)

	_, out, err := SendJSON[nameRequest, greeting, apiError](context.Background(), c, "/json", http.MethodPost, nil, &nameRequest{Name: "bob"})
	require.NoError(t, err)
	require.Equal(t, "bob", out.Hello)

	status, _, err := SendJSON[nameRequest, greeting, apiError](context.Background(), c, "/json", http.MethodPost, nil, &nameRequest{})
	require.Equal(t, http.StatusBadRequest, status)
	var statusErr *StatusError[apiError]
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "bad request", statusErr.Payload.Msg)
}

func TestSend_CBORRoundTrip(t *testing.T) {
	c := dial(t, nil)
	cb, err := codec.CBOR()
	require.NoError(t, err)

	in := greeting{Hello: "carol"}
	status, out, err := Send[greeting, greeting, apiError](context.Background(), c, cb, "/echo", http.MethodPost, nil, &in)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, in, out)
}

func TestSend_DecodeFailureKeepsBody(t *testing.T) {
	c := dial(t, nil)

	status, out, err := SendJSON[struct{}, greeting, apiError](context.Background(), c, "/alice", http.MethodGet, nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Zero(t, out)
	require.Equal(t, client.KindDecode, client.KindOf(err))

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, http.StatusOK, decErr.StatusCode)
	require.Equal(t, "Hello alice", string(decErr.Body))

	// Undecodable error bodies are reported the same way.
	status, _, err = SendJSON[struct{}, greeting, apiError](context.Background(), c, "/missing", http.MethodGet, nil, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, "not found", string(decErr.Body))
}

func TestSend_EncodeFailureIsNeverSent(t *testing.T) {
	s := &recordingSender{}
	ch := make(chan int)

	_, _, err := SendJSON[chan int, greeting, apiError](context.Background(), s, "/json", http.MethodPost, nil, &ch)
	require.Equal(t, client.KindEncode, client.KindOf(err))
	require.Zero(t, s.calls)
}

func TestSend_NoContent(t *testing.T) {
	c := dial(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	status, out, err := SendJSON[nameRequest, greeting, apiError](context.Background(), c, "/anything", http.MethodDelete, nil, &nameRequest{Name: "x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, status)
	require.Zero(t, out)
}

func TestSend_AppendsContentType(t *testing.T) {
	s := &recordingSender{resp: client.Response{StatusCode: http.StatusOK, Body: []byte(`{"hello":"dave"}`)}}
	headers := []client.Header{{Name: "X-Trace", Value: "1"}}

	_, out, err := SendJSON[nameRequest, greeting, apiError](context.Background(), s, "/json", http.MethodPost, headers, &nameRequest{Name: "dave"})
	require.NoError(t, err)
	require.Equal(t, "dave", out.Hello)
	require.Equal(t, []client.Header{
		{Name: "X-Trace", Value: "1"},
		{Name: "Content-Type", Value: "application/json"},
	}, s.headers)
	require.JSONEq(t, `{"name":"dave"}`, string(s.body))
	require.Len(t, headers, 1)
}

func TestSend_InternalFailurePassesThrough(t *testing.T) {
	srv := sockettest.NewServer(t, nil)
	c, err := client.Dial(context.Background(), srv.Path)
	require.NoError(t, err)
	srv.Close()
	<-c.Done()

	_, _, err = SendJSON[struct{}, greeting, apiError](context.Background(), c, "/json/alice", http.MethodGet, nil, nil)
	require.Equal(t, client.KindSend, client.KindOf(err))
	require.True(t, client.IsClosed(err))
}

type recordingSender struct {
	calls   int
	headers []client.Header
	body    []byte
	resp    client.Response
}

func (r *recordingSender) Send(_ context.Context, _, _ string, headers []client.Header, body []byte) (client.Response, error) {
	r.calls++
	r.headers = headers
	r.body = body
	return r.resp, nil
}
