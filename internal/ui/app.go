package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sockhttp/internal/codec"
	"github.com/five82/sockhttp/internal/prefs"
	"github.com/five82/sockhttp/internal/state"
)

// Options configures the watch view.
type Options struct {
	Store     *state.Store
	Socket    string
	Target    string // "METHOD /endpoint" shown in the header
	Codecs    *codec.Registry
	PollTick  time.Duration
	ThemeName string
	Pretty    bool
	PrefsPath string
}

// Model is the root state for Bubble Tea.
type Model struct {
	store     *state.Store
	socket    string
	target    string
	codecs    *codec.Registry
	prefsPath string
	pollTick  time.Duration

	theme  Theme
	pretty bool
	width  int
	height int
	ready  bool

	snapshot state.Snapshot
	body     viewport.Model
}

// New creates the watch view model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	codecs := opts.Codecs
	if codecs == nil {
		codecs = codec.NewRegistry()
	}
	return Model{
		store:     opts.Store,
		socket:    opts.Socket,
		target:    opts.Target,
		codecs:    codecs,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		theme:     GetTheme(opts.ThemeName),
		pretty:    opts.Pretty,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.body = viewport.New(m.bodyWidth(), m.bodyHeight())
			m.ready = true
		} else {
			m.body.Width = m.bodyWidth()
			m.body.Height = m.bodyHeight()
		}
		m.refreshBody()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.refreshBody()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case "p":
		m.pretty = !m.pretty
		m.savePrefs()
		m.refreshBody()
		return m, nil

	case "g", "home":
		m.body.GotoTop()
		return m, nil

	case "G", "end":
		m.body.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) savePrefs() {
	if m.prefsPath != "" {
		_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Pretty: m.pretty})
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.theme.Styles().Body.Render(m.body.View()))
	return b.String()
}

func (m Model) bodyWidth() int  { return max(m.width-2, 1) }
func (m Model) bodyHeight() int { return max(m.height-4, 1) }

func (m *Model) refreshBody() {
	if !m.ready {
		return
	}
	m.body.SetContent(m.renderBody())
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
