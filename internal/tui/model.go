// Package tui is the terminal front end: text input, voice and mood lists,
// a pitch control and a generate action that runs in the background.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/pipeline"
	"github.com/example/smartvoice/internal/selection"
)

// PitchStep matches the ten divisions of the pitch range.
const PitchStep = (selection.MaxPitch - selection.MinPitch) / 10

// Controller is the generate pipeline as seen by the terminal UI.
type Controller interface {
	Catalog() *catalog.Catalog
	State() selection.State
	Moods() []string
	SetVoice(name string) error
	SetMood(mood string) error
	SetPitch(v int) error
	SetText(s string)
	Generate(ctx context.Context) pipeline.Outcome
	Replay(ctx context.Context) error
}

type focus int

const (
	focusText focus = iota
	focusVoice
	focusMood
	focusPitch
	focusCount
)

// Model is the bubbletea model.
type Model struct {
	ctx context.Context
	ctl Controller

	width int
	focus focus
	busy  bool

	input   textinput.Model
	spinner spinner.Model

	status    string
	statusErr bool
}

// NewModel creates a model driving ctl. ctx bounds the background actions.
func NewModel(ctx context.Context, ctl Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text to synthesize..."
	ti.CharLimit = 4000
	ti.Width = 60
	ti.SetValue(ctl.State().Text)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		ctx:     ctx,
		ctl:     ctl,
		input:   ti,
		spinner: sp,
		status:  "Ready",
	}
}

type generateDoneMsg struct {
	outcome pipeline.Outcome
}

type replayDoneMsg struct {
	err error
}

func generateCmd(ctx context.Context, ctl Controller) tea.Cmd {
	return func() tea.Msg {
		return generateDoneMsg{outcome: ctl.Generate(ctx)}
	}
}

func replayCmd(ctx context.Context, ctl Controller) tea.Cmd {
	return func() tea.Msg {
		return replayDoneMsg{err: ctl.Replay(ctx)}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Busy reports whether a generate action is outstanding.
func (m Model) Busy() bool { return m.busy }

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 8; w > 20 {
			m.input.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case generateDoneMsg:
		m.busy = false
		out := msg.outcome
		if out.Err != nil {
			m.setStatus(fmt.Sprintf("Error (%s): %v", out.Kind, out.Err), true)
		} else {
			m.setStatus(fmt.Sprintf("Audio saved as %s (%d bytes)", filepath.Base(out.Path), out.Bytes), false)
		}
		return m, nil

	case replayDoneMsg:
		if msg.err != nil {
			m.setStatus("Replay failed: "+msg.err.Error(), true)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.focus == focusText {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab":
		return m.setFocus((m.focus + 1) % focusCount), nil

	case "shift+tab":
		return m.setFocus((m.focus + focusCount - 1) % focusCount), nil

	case "enter", "ctrl+g":
		return m.startGenerate()

	case "ctrl+r":
		if m.busy {
			return m, nil
		}
		m.setStatus("Replaying...", false)
		return m, replayCmd(m.ctx, m.ctl)
	}

	switch m.focus {
	case focusVoice:
		m.moveVoice(msg.String())
		return m, nil
	case focusMood:
		m.moveMood(msg.String())
		return m, nil
	case focusPitch:
		m.movePitch(msg.String())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctl.SetText(m.input.Value())
	return m, cmd
}

func (m Model) setFocus(f focus) Model {
	m.focus = f
	if f == focusText {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

// startGenerate dispatches the generate action unless one is outstanding.
func (m Model) startGenerate() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.ctl.SetText(m.input.Value())
	m.busy = true
	m.setStatus("Generating...", false)
	return m, tea.Batch(m.spinner.Tick, generateCmd(m.ctx, m.ctl))
}

func (m *Model) moveVoice(key string) {
	names := m.ctl.Catalog().Names()
	idx := indexOf(names, m.ctl.State().Voice)
	next, ok := step(idx, len(names), key)
	if !ok {
		return
	}
	if err := m.ctl.SetVoice(names[next]); err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) moveMood(key string) {
	moods := m.ctl.Moods()
	idx := indexOf(moods, m.ctl.State().Mood)
	next, ok := step(idx, len(moods), key)
	if !ok {
		return
	}
	if err := m.ctl.SetMood(moods[next]); err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) movePitch(key string) {
	pitch := m.ctl.State().Pitch
	switch key {
	case "left", "h", "down", "j":
		pitch -= PitchStep
	case "right", "l", "up", "k":
		pitch += PitchStep
	case "0":
		pitch = 0
	default:
		return
	}
	if !selection.PitchInRange(pitch) {
		return
	}
	if err := m.ctl.SetPitch(pitch); err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// step moves a list cursor for up/down keys. It does not wrap.
func step(idx, n int, key string) (int, bool) {
	switch key {
	case "up", "k":
		idx--
	case "down", "j":
		idx++
	default:
		return 0, false
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

func indexOf(items []string, v string) int {
	for i, s := range items {
		if s == v {
			return i
		}
	}
	return -1
}

// View renders the screen.
func (m Model) View() string {
	var s strings.Builder
	st := m.ctl.State()

	s.WriteString(TitleStyle.Render("Smart Voice Synthesizer"))
	s.WriteString("\n")

	s.WriteString(m.box(focusText, LabelStyle.Render("Enter text")+"\n"+m.input.View()))
	s.WriteString("\n")

	voices := m.box(focusVoice, LabelStyle.Render("Select Voice")+"\n"+renderList(m.ctl.Catalog().Names(), st.Voice))
	moods := m.box(focusMood, LabelStyle.Render("Select Mood")+"\n"+renderList(m.ctl.Moods(), st.Mood))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, voices, " ", moods))
	s.WriteString("\n")

	s.WriteString(m.box(focusPitch, LabelStyle.Render("Adjust Pitch")+"\n"+renderPitch(st.Pitch)))
	s.WriteString("\n\n")

	if m.busy {
		s.WriteString(DisabledButtonStyle.Render(m.spinner.View() + " Generating"))
	} else {
		s.WriteString(ButtonStyle.Render("Generate Voice"))
	}
	s.WriteString("  ")
	if m.statusErr {
		s.WriteString(StatusErrorStyle.Render(m.status))
	} else {
		s.WriteString(StatusOKStyle.Render(m.status))
	}
	s.WriteString("\n")

	s.WriteString(HelpStyle.Render("tab focus • ↑/↓ select • ←/→ pitch • enter generate • ctrl+r replay • esc quit"))
	return s.String()
}

func (m Model) box(f focus, content string) string {
	if m.focus == f {
		return FocusedBoxStyle.Render(content)
	}
	return BoxStyle.Render(content)
}

func renderList(items []string, selected string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if it == selected {
			lines = append(lines, SelectedItemStyle.Render("▸ "+it))
		} else {
			lines = append(lines, ItemStyle.Render("  "+it))
		}
	}
	return strings.Join(lines, "\n")
}

func renderPitch(pitch int) string {
	var b strings.Builder
	for v := selection.MinPitch; v <= selection.MaxPitch; v += PitchStep {
		if v == pitch {
			b.WriteString(SelectedItemStyle.UnsetPaddingLeft().Render("●"))
		} else {
			b.WriteString("─")
		}
	}
	return fmt.Sprintf("%s %d%%", b.String(), pitch)
}
