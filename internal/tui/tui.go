// Package tui provides a Bubble Tea terminal user interface for ordering the
// tracks of a directory.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/mp3order/internal/audio"
	"github.com/handiism/mp3order/internal/config"
	"github.com/handiism/mp3order/internal/engine"
	"github.com/handiism/mp3order/internal/mirror"
	"github.com/handiism/mp3order/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is how many log lines the log pane keeps.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateLoading State = iota
	StateList
	StateEditing
	StateBusy
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   engine.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	engine    *engine.Engine
	folder    *model.Folder
	cursor    int
	dirty     bool
	metadata  *audio.Metadata
	logs      []LogEntry
	busyText  string
	err       error
	verbose   bool

	// msgs carries engine events from running commands to Update.
	msgs chan tea.Msg

	// Mirror progress
	mirrorDone  int
	mirrorTotal int

	width  int
	height int
}

// NewModel creates a TUI model managing settings.WorkDir.
func NewModel(settings *config.Settings, opts ...engine.Option) Model {
	ti := textinput.New()
	ti.Placeholder = "track title"
	ti.CharLimit = 255
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	msgs := make(chan tea.Msg, eventBuffer)
	opts = append(opts, engine.WithMirrorProgress(func(p mirror.Progress) {
		trySend(msgs, MirrorProgressMsg{Progress: p})
	}))
	eng := engine.New(settings, func(event engine.ProgressEvent) {
		sendEvent(msgs, event)
	}, opts...)

	return Model{
		state:     StateLoading,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		engine:    eng,
		logs:      make([]LogEntry, 0),
		msgs:      msgs,
	}
}

// Init loads the directory and syncs the mirror, as opening a medium does.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForMsg(), m.load(true))
}

// Message types
type (
	// ProgressMsg carries an engine progress event.
	ProgressMsg struct {
		Event engine.ProgressEvent
	}

	// MirrorProgressMsg is sent after each mirrored file.
	MirrorProgressMsg struct {
		Progress mirror.Progress
	}

	// LoadedMsg is sent when the directory has been listed.
	LoadedMsg struct {
		Folder *model.Folder
		Sync   bool
		Err    error
	}

	// ApplyDoneMsg is sent when Apply returns.
	ApplyDoneMsg struct {
		Result *engine.Result
		Err    error
	}

	// SyncDoneMsg is sent when a mirror-only sync returns.
	SyncDoneMsg struct {
		Err error
	}

	// MetadataMsg carries the tags of the track under the cursor.
	MetadataMsg struct {
		Path     string
		Metadata *audio.Metadata
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			_ = m.engine.Stop()
			return m, tea.Quit
		}
		switch m.state {
		case StateList:
			return m.updateList(msg)
		case StateEditing:
			return m.updateEditing(msg)
		case StateError:
			if msg.String() == "q" || msg.String() == "esc" {
				return m, tea.Quit
			}
			if msg.String() == "r" {
				m.state = StateLoading
				m.err = nil
				return m, m.load(false)
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, m.waitForMsg())

	case MirrorProgressMsg:
		m.mirrorDone = msg.Progress.Done
		m.mirrorTotal = msg.Progress.Total
		cmds = append(cmds, m.progress.SetPercent(float64(m.mirrorDone)/float64(max(m.mirrorTotal, 1))), m.waitForMsg())

	case LoadedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.folder = msg.Folder
		m.dirty = false
		m.cursor = min(m.cursor, max(m.folder.Len()-1, 0))
		m.state = StateList
		if msg.Sync && m.engine.MirrorDir() != "" {
			cmds = append(cmds, m.sync())
			m.state = StateBusy
			m.busyText = "Syncing mirror..."
		}
		cmds = append(cmds, m.readMetadata())

	case ApplyDoneMsg:
		m.state = StateList
		if msg.Err != nil {
			// Renames before the failure stand; reload to show them.
			return m, m.load(false)
		}
		if msg.Result.Reload {
			m.state = StateLoading
			return m, m.load(false)
		}

	case SyncDoneMsg:
		m.state = StateList

	case MetadataMsg:
		if t := m.current(); t != nil && t.Path == msg.Path {
			m.metadata = msg.Metadata
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.folder.Len()

	switch msg.String() {
	case "q", "esc":
		_ = m.engine.Stop()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.readMetadata()
		}

	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
			return m, m.readMetadata()
		}

	case "K", "shift+up":
		if m.cursor > 0 {
			_ = m.folder.Move(m.cursor, m.cursor-1)
			m.cursor--
			m.dirty = true
		}

	case "J", "shift+down":
		if m.cursor < n-1 {
			_ = m.folder.Move(m.cursor, m.cursor+1)
			m.cursor++
			m.dirty = true
		}

	case "e":
		if t := m.current(); t != nil {
			m.state = StateEditing
			m.textInput.SetValue(t.Label)
			m.textInput.CursorEnd()
			return m, m.textInput.Focus()
		}

	case "s":
		if n > 0 {
			m.state = StateBusy
			m.busyText = "Applying order..."
			m.mirrorDone, m.mirrorTotal = 0, 0
			return m, m.apply()
		}

	case "enter", "p":
		if t := m.current(); t != nil {
			if err := m.engine.Play(t); err != nil {
				m.addLog(engine.ProgressEvent{Message: err.Error(), Level: engine.LevelError})
			}
		}

	case "x":
		if err := m.engine.Stop(); err != nil {
			m.addLog(engine.ProgressEvent{Message: err.Error(), Level: engine.LevelError})
		}

	case "m":
		if m.engine.MirrorDir() != "" {
			m.state = StateBusy
			m.busyText = "Syncing mirror..."
			m.mirrorDone, m.mirrorTotal = 0, 0
			return m, m.sync()
		}

	case "r":
		m.state = StateLoading
		return m, m.load(false)

	case "v":
		m.verbose = !m.verbose
	}

	return m, nil
}

// updateEditing renames the track under the cursor as soon as the edit is
// confirmed. An empty edit is the same as cancelling.
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = StateList
		m.textInput.Blur()
		return m, nil

	case "enter":
		m.state = StateList
		m.textInput.Blur()

		label := strings.TrimSpace(m.textInput.Value())
		t := m.current()
		if label == "" || t == nil {
			return m, nil
		}
		if err := m.engine.Rename(t, label); err != nil {
			m.addLog(engine.ProgressEvent{Message: err.Error(), Level: engine.LevelError})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) addLog(event engine.ProgressEvent) {
	if event.Level == engine.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) current() *model.Track {
	if m.folder == nil || m.cursor < 0 || m.cursor >= m.folder.Len() {
		return nil
	}
	return m.folder.Tracks[m.cursor]
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎵 mp3order"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.settings.WorkDir))
	if dir := m.engine.MirrorDir(); dir != "" {
		b.WriteString(dimStyle.Render(" → " + dir))
	}
	b.WriteString("\n\n")

	switch m.state {
	case StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Reading directory..."))
		b.WriteString("\n")
	case StateList, StateEditing:
		b.WriteString(m.viewList())
	case StateBusy:
		b.WriteString(m.viewBusy())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder

	if m.folder == nil || m.folder.Len() == 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("No %s files found", m.settings.Extension)))
		b.WriteString("\n")
		return b.String()
	}

	status := fmt.Sprintf("%d tracks", m.folder.Len())
	if m.dirty {
		status += " • unsaved order (s to apply)"
	}
	b.WriteString(subtitleStyle.Render(status))
	b.WriteString("\n\n")

	for i, t := range m.folder.Tracks {
		line := fmt.Sprintf("%3d  %s", t.Ordinal, t.Label)
		if t.Edited() {
			line += dimStyle.Render("  (" + t.Name + ")")
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.state == StateEditing {
		b.WriteString("\n")
		b.WriteString(infoStyle.Render("Rename:"))
		b.WriteString(" ")
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
	} else if md := m.metadata; md != nil {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(metadataLine(md)))
		b.WriteString("\n")
	}

	return b.String()
}

func metadataLine(md *audio.Metadata) string {
	parts := []string{md.Title}
	if md.Artist != "" {
		parts = append(parts, md.Artist)
	}
	if md.Album != "" {
		parts = append(parts, md.Album)
	}
	return strings.Join(parts, " · ")
}

func (m Model) viewBusy() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(m.busyText))
	b.WriteString("\n")

	if m.mirrorTotal > 0 {
		b.WriteString("\n")
		b.WriteString(m.progress.View())
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Mirrored: %d/%d", m.mirrorDone, m.mirrorTotal)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case engine.LevelError:
			style = errorStyle
			prefix = "✗"
		case engine.LevelWarning:
			style = warningStyle
			prefix = "!"
		case engine.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case engine.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateList:
		return "↑/↓: select • J/K: move • e: rename • s: apply • p: play • x: stop • m: mirror • r: reload • v: verbose • q: quit"
	case StateEditing:
		return "enter: rename • esc: cancel"
	case StateError:
		return "r: retry • q: quit"
	}
	return "ctrl+c: quit"
}

// eventBuffer bounds the engine messages queued for Update.
const eventBuffer = 256

// sendEvent queues an engine event. Verbose events are dropped when the
// queue is full; every other level waits for room.
func sendEvent(msgs chan<- tea.Msg, event engine.ProgressEvent) {
	if event.Level == engine.LevelVerbose {
		trySend(msgs, ProgressMsg{Event: event})
		return
	}
	msgs <- ProgressMsg{Event: event}
}

func trySend(msgs chan<- tea.Msg, msg tea.Msg) {
	select {
	case msgs <- msg:
	default:
	}
}

// waitForMsg delivers the next engine message.
func (m Model) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

func (m Model) load(sync bool) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		folder, err := eng.Load()
		return LoadedMsg{Folder: folder, Sync: sync, Err: err}
	}
}

func (m Model) apply() tea.Cmd {
	eng, tracks := m.engine, m.folder.Tracks
	return func() tea.Msg {
		res, err := eng.Apply(context.Background(), tracks)
		return ApplyDoneMsg{Result: res, Err: err}
	}
}

func (m Model) sync() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		_, err := eng.Sync(context.Background())
		return SyncDoneMsg{Err: err}
	}
}

func (m Model) readMetadata() tea.Cmd {
	t := m.current()
	if t == nil {
		return nil
	}
	path := t.Path
	return func() tea.Msg {
		md, _ := audio.ReadMetadata(path)
		return MetadataMsg{Path: path, Metadata: md}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
