// Package codec maps payload types to and from request and response bodies.
package codec

import (
	"encoding/json"
	"errors"
	"mime"
	"sort"
	"strings"
)

// Codec marshals typed payloads. Marshal must be deterministic so that the
// same value always produces the same request body.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps content types and short names to codecs.
type Registry struct {
	byType map[string]Codec
	byName map[string]Codec
}

// NewRegistry returns a registry holding the codecs that need no setup:
// JSON under "json" and Protobuf under "proto". CBOR is added with
// Register once CBOR() has succeeded.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]Codec), byName: make(map[string]Codec)}
	r.Register("json", JSON())
	r.Register("proto", Proto())
	return r
}

// Default returns NewRegistry with CBOR registered under "cbor".
func Default() (*Registry, error) {
	r := NewRegistry()
	cb, err := CBOR()
	if err != nil {
		return nil, err
	}
	r.Register("cbor", cb)
	return r, nil
}

// Register adds c under name and under its content type. A later
// registration replaces an earlier one.
func (r *Registry) Register(name string, c Codec) {
	r.byType[c.ContentType()] = c
	if name != "" {
		r.byName[strings.ToLower(name)] = c
	}
}

// Get returns the codec registered under name, or nil.
func (r *Registry) Get(name string) Codec {
	return r.byName[strings.ToLower(strings.TrimSpace(name))]
}

// Lookup returns the codec for a Content-Type header value. Parameters such
// as charset are ignored.
func (r *Registry) Lookup(contentType string) Codec {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	return r.byType[mediaType]
}

// Names lists the registered short names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrNotIndentable is returned by Indent for codecs that cannot decode into
// a generic value, such as Protobuf.
var ErrNotIndentable = errors.New("codec cannot decode into a generic value")

// Indent decodes data with c into a generic value and re-encodes it as
// indented JSON for display.
func Indent(c Codec, data []byte) ([]byte, error) {
	if _, ok := c.(protoCodec); ok {
		return nil, ErrNotIndentable
	}
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}
