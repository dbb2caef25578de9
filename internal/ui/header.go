package ui

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sockhttp/internal/client"
)

// renderHeader renders the status bar: socket, target and the latest outcome.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{
		bg.Render("sockctl", styles.Logo),
		bg.Render(truncateMiddle(m.socket, 40), styles.MutedText),
		bg.Render(m.target, styles.AccentText),
	}

	switch {
	case snap.LastError != nil:
		label := "ERROR"
		if snap.IsOffline() {
			label = "OFFLINE"
		}
		parts = append(parts,
			bg.Render(label, styles.DangerText),
			bg.Render(classifyError(snap.LastError), styles.WarningText),
		)
	case snap.HasResult:
		code := snap.Result.StatusCode
		parts = append(parts,
			m.theme.StatusChip(code).Render(fmt.Sprintf("%d %s", code, http.StatusText(code))),
			bg.Render(snap.Result.Latency.Round(100*time.Microsecond).String(), styles.FaintText),
		)
	default:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	}

	if snap.Reconnects > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("reconnects %d", snap.Reconnects), styles.InfoText))
	}
	if !snap.LastUpdated.IsZero() {
		parts = append(parts, bg.Render(snap.LastUpdated.Format("15:04:05"), styles.MutedText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	prettyLabel := "Pretty"
	if m.pretty {
		prettyLabel = "Raw"
	}
	commands := []struct{ key, desc string }{
		{"j/k", "Scroll"},
		{"g/G", "Top/Bottom"},
		{"p", prettyLabel},
		{"T", m.theme.Name},
		{"q", "Quit"},
	}

	segments := make([]string, 0, len(commands))
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+bg.Render(":", styles.FaintText)+bg.Render(c.desc, styles.MutedText))
	}
	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

// classifyError returns a short description of a poll failure.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ENOENT):
		return "socket missing"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.EACCES):
		return "permission denied"
	case client.IsClosed(err):
		return "session closed"
	}
	if kind := client.KindOf(err); kind != client.KindUnknown {
		return kind.String() + " failed"
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}
