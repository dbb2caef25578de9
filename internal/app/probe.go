package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/five82/sockhttp/internal/client"
	"github.com/five82/sockhttp/internal/codec"
	"github.com/five82/sockhttp/internal/payload"
)

// Probe sends the request once and writes the status line and body to
// opts.Out. It reports whether the status was 2xx. Internal failures are
// returned as errors and nothing is written.
//
// In typed mode the request body is read as JSON, re-encoded with the
// configured codec, and the answer is decoded with it and printed as
// indented JSON.
func Probe(ctx context.Context, opts Options) (bool, error) {
	e, err := setup(opts, false)
	if err != nil {
		return false, err
	}
	defer e.close()

	c, err := client.Dial(ctx, e.cfg.SocketPath, e.dialOptions()...)
	if err != nil {
		return false, err
	}
	defer func() { _ = c.Abort() }()

	out := output(opts.Out)
	if e.cfg.Codec == "" {
		return probeRaw(ctx, c, e.req, out)
	}

	cd := e.codecs.Get(e.cfg.Codec)
	if cd == nil {
		return false, fmt.Errorf("codec %q is not registered", e.cfg.Codec)
	}
	e.log.Debug("typed probe", zap.String("codec", e.cfg.Codec), zap.String("endpoint", e.req.Endpoint))
	if cd.ContentType() == codec.Proto().ContentType() {
		return probeProto(ctx, c, cd, e.req, out)
	}
	return probeGeneric(ctx, c, cd, e.req, out)
}

func probeRaw(ctx context.Context, c *client.Client, req Request, out io.Writer) (bool, error) {
	resp, err := c.Send(ctx, req.Endpoint, req.Method, req.Headers, req.Body)
	var statusErr *client.StatusError
	switch {
	case err == nil:
		return true, writeResult(out, resp.StatusCode, resp.Body)
	case errors.As(err, &statusErr):
		return false, writeResult(out, statusErr.StatusCode, statusErr.Body)
	default:
		return false, err
	}
}

func probeGeneric(ctx context.Context, c *client.Client, cd codec.Codec, req Request, out io.Writer) (bool, error) {
	var body *any
	if len(req.Body) > 0 {
		var v any
		if err := json.Unmarshal(req.Body, &v); err != nil {
			return false, fmt.Errorf("parse request body as JSON: %w", err)
		}
		body = &v
	}

	status, value, err := payload.Send[any, any, any](ctx, c, cd, req.Endpoint, req.Method, req.Headers, body)
	var statusErr *payload.StatusError[any]
	switch {
	case err == nil:
		return true, writeJSON(out, status, value)
	case errors.As(err, &statusErr):
		return false, writeJSON(out, statusErr.StatusCode, statusErr.Payload)
	default:
		return false, err
	}
}

func probeProto(ctx context.Context, c *client.Client, cd codec.Codec, req Request, out io.Writer) (bool, error) {
	var body **structpb.Struct
	if len(req.Body) > 0 {
		msg := &structpb.Struct{}
		if err := protojson.Unmarshal(req.Body, msg); err != nil {
			return false, fmt.Errorf("parse request body as JSON: %w", err)
		}
		body = &msg
	}

	status, value, err := payload.Send[*structpb.Struct, *structpb.Struct, *structpb.Struct](ctx, c, cd, req.Endpoint, req.Method, req.Headers, body)
	var statusErr *payload.StatusError[*structpb.Struct]
	switch {
	case err == nil:
		return true, writeProto(out, status, value)
	case errors.As(err, &statusErr):
		return false, writeProto(out, statusErr.StatusCode, statusErr.Payload)
	default:
		return false, err
	}
}

func writeStatus(out io.Writer, status int) error {
	_, err := fmt.Fprintf(out, "%d %s\n", status, http.StatusText(status))
	return err
}

func writeResult(out io.Writer, status int, body []byte) error {
	if err := writeStatus(out, status); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if _, err := out.Write(body); err != nil {
		return err
	}
	if body[len(body)-1] != '\n' {
		_, err := io.WriteString(out, "\n")
		return err
	}
	return nil
}

func writeJSON(out io.Writer, status int, v any) error {
	if v == nil {
		return writeStatus(out, status)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	return writeResult(out, status, data)
}

func writeProto(out io.Writer, status int, msg *structpb.Struct) error {
	if msg == nil {
		return writeStatus(out, status)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	return writeResult(out, status, data)
}
