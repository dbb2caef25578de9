package ui

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/five82/sockhttp/internal/codec"
)

// renderBody renders the latest result for the viewport. Pretty mode
// re-indents bodies whose Content-Type maps to a registered codec; anything
// that cannot be decoded is shown as received.
func (m Model) renderBody() string {
	snap := m.snapshot
	if !snap.HasResult {
		if snap.LastError != nil {
			return snap.LastError.Error()
		}
		return "Waiting for the first response..."
	}

	var b strings.Builder
	if m.pretty {
		writeHeaders(&b, snap.Result.Header)
	}
	b.WriteString(formatBody(m.codecs, snap.Result.Header.Get("Content-Type"), snap.Result.Body, m.pretty))
	if snap.LastError != nil {
		fmt.Fprintf(&b, "\n\nlast poll failed: %v", snap.LastError)
	}
	return b.String()
}

func writeHeaders(b *strings.Builder, h http.Header) {
	if len(h) == 0 {
		return
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			fmt.Fprintf(b, "%s: %s\n", k, v)
		}
	}
	b.WriteString("\n")
}

func formatBody(codecs *codec.Registry, contentType string, body []byte, pretty bool) string {
	if len(body) == 0 {
		return "(empty body)"
	}
	if pretty && codecs != nil {
		if cd := codecs.Lookup(contentType); cd != nil {
			if out, err := codec.Indent(cd, body); err == nil {
				return string(out)
			}
		}
	}
	return string(body)
}
