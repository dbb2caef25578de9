// Package payload sends typed request bodies and decodes typed responses on
// top of a client.Sender.
package payload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/five82/sockhttp/internal/client"
	"github.com/five82/sockhttp/internal/codec"
)

// StatusError is an application failure whose body decoded as E.
type StatusError[E any] struct {
	StatusCode int
	Payload    E
}

func (e *StatusError[E]) Error() string {
	return fmt.Sprintf("unsuccessful response: status %d", e.StatusCode)
}

// DecodeError keeps the raw body of a response that did not decode.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode status %d body (%d bytes): %v", e.StatusCode, len(e.Body), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Send marshals body with cd, sends it, and decodes the response. A 2xx body
// decodes into Out; 204 No Content yields the zero Out. Any other status
// decodes into ErrOut and is returned as *StatusError[ErrOut]. A nil body
// sends an empty request body.
func Send[In, Out, ErrOut any](ctx context.Context, s client.Sender, cd codec.Codec, endpoint, method string, headers []client.Header, body *In) (int, Out, error) {
	var out Out

	var raw []byte
	if body != nil {
		b, err := cd.Marshal(body)
		if err != nil {
			return 0, out, &client.Error{Kind: client.KindEncode, Err: err}
		}
		raw = b
	}
	headers = append(slices.Clip(headers), client.Header{Name: "Content-Type", Value: cd.ContentType()})

	resp, err := s.Send(ctx, endpoint, method, headers, raw)
	if err != nil {
		var statusErr *client.StatusError
		if !errors.As(err, &statusErr) {
			return 0, out, err
		}
		var payload ErrOut
		if err := decode(cd, statusErr.StatusCode, statusErr.Body, &payload); err != nil {
			return statusErr.StatusCode, out, err
		}
		return statusErr.StatusCode, out, &StatusError[ErrOut]{StatusCode: statusErr.StatusCode, Payload: payload}
	}

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, out, nil
	}
	if err := decode(cd, resp.StatusCode, resp.Body, &out); err != nil {
		var zero Out
		return resp.StatusCode, zero, err
	}
	return resp.StatusCode, out, nil
}

// SendJSON is Send with the JSON codec.
func SendJSON[In, Out, ErrOut any](ctx context.Context, s client.Sender, endpoint, method string, headers []client.Header, body *In) (int, Out, error) {
	return Send[In, Out, ErrOut](ctx, s, codec.JSON(), endpoint, method, headers, body)
}

func decode(cd codec.Codec, status int, body []byte, v any) error {
	if err := cd.Unmarshal(body, v); err != nil {
		return &client.Error{Kind: client.KindDecode, Err: &DecodeError{StatusCode: status, Body: body, Err: err}}
	}
	return nil
}
