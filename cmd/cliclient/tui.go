package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	viewport "github.com/marben/mandel_viewport"
)

// KeyMap defines the key bindings of the viewport TUI
type KeyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Reset    key.Binding
	Landmark key.Binding
	Edit     key.Binding
	Next     key.Binding
	Apply    key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

var DefaultKeyMap = KeyMap{
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Landmark: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6"),
		key.WithHelp("1-6", "landmarks"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Apply: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "render"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	primaryColor = lipgloss.Color("#7D56F4")
	mutedColor   = lipgloss.Color("#626262")
	errorColor   = lipgloss.Color("#FF5F87")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(6)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

// renderMsg reports a finished render request.
type renderMsg viewport.RenderResult

var editFields = []viewport.Field{viewport.FieldX, viewport.FieldY, viewport.FieldW}

// Model is the TUI state around one viewport.Controller.
type Model struct {
	c       *viewport.Controller
	surface *fileSurface

	status   logMsg
	last     viewport.RenderResult
	rendered int
	landmark string
	editing  bool
	inputs   []textinput.Model
	focus    int
	quitting bool
}

func NewModel(c *viewport.Controller, surface *fileSurface) Model {
	inputs := make([]textinput.Model, len(editFields))
	for i, f := range editFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 32
		ti.Placeholder = f.ID()
		inputs[i] = ti
	}
	return Model{c: c, surface: surface, inputs: inputs}
}

// Init renders the default view.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		m.c.Reset()
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderMsg:
		res := viewport.RenderResult(msg)
		if res.Stale {
			return m, nil
		}
		m.last = res
		if res.Err == nil {
			m.rendered++
		}
		return m, nil

	case logMsg:
		if msg.level >= levelInfo || m.status.text == "" {
			m.status = msg
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNavigating(msg)
	}
	return m, nil
}

func (m Model) updateNavigating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch {
	case key.Matches(msg, DefaultKeyMap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, DefaultKeyMap.Left):
		err = m.move(viewport.Left)
	case key.Matches(msg, DefaultKeyMap.Right):
		err = m.move(viewport.Right)
	case key.Matches(msg, DefaultKeyMap.Up):
		err = m.move(viewport.Up)
	case key.Matches(msg, DefaultKeyMap.Down):
		err = m.move(viewport.Down)
	case key.Matches(msg, DefaultKeyMap.ZoomIn):
		m.landmark = ""
		err = m.c.Zoom(viewport.In)
	case key.Matches(msg, DefaultKeyMap.ZoomOut):
		m.landmark = ""
		err = m.c.Zoom(viewport.Out)
	case key.Matches(msg, DefaultKeyMap.Reset):
		m.landmark = ""
		m.c.Reset()
	case key.Matches(msg, DefaultKeyMap.Landmark):
		lm := viewport.Landmarks[msg.Runes[0]-'1']
		m.landmark = lm.Name
		m.c.Jump(lm.Region.View())
	case key.Matches(msg, DefaultKeyMap.Edit):
		m.editing = true
		m.focus = 0
		for i, f := range editFields {
			m.inputs[i].SetValue(m.surface.FieldValue(f))
			m.inputs[i].Blur()
		}
		return m, m.inputs[0].Focus()
	default:
		return m, nil
	}
	if err != nil {
		m.status = logMsg{level: levelError, text: err.Error()}
	}
	return m, nil
}

func (m *Model) move(d viewport.Direction) error {
	m.landmark = ""
	return m.c.Move(d)
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Cancel):
		m.editing = false
		return m, nil
	case key.Matches(msg, DefaultKeyMap.Next):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		return m, m.inputs[m.focus].Focus()
	case key.Matches(msg, DefaultKeyMap.Apply):
		m.editing = false
		m.landmark = ""
		// typed text is taken as is; unparseable values become NaN
		m.c.Jump(viewport.View{
			X: viewport.ParseNumber(m.inputs[0].Value()),
			Y: viewport.ParseNumber(m.inputs[1].Value()),
			W: viewport.ParseNumber(m.inputs[2].Value()),
		})
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := "Mandelbrot viewport"
	if m.landmark != "" {
		title += " · " + m.landmark
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	for i, f := range editFields {
		value := m.surface.FieldValue(f)
		if m.editing {
			value = m.inputs[i].View()
		}
		b.WriteString(labelStyle.Render(strings.Split(f.ID(), "-")[0]) + value + "\n")
	}
	b.WriteString("\n")

	path, alt := m.surface.Shown()
	switch {
	case path == "":
		b.WriteString(mutedStyle.Render("no image yet") + "\n")
	default:
		b.WriteString(fmt.Sprintf("%s\n%s\n", path, mutedStyle.Render(fmt.Sprintf("%s · %d bytes · %d rendered", alt, m.last.Bytes, m.rendered))))
	}
	if m.last.Err != nil {
		b.WriteString(errorStyle.Render("last render failed: "+m.last.Err.Error()) + "\n")
	}
	if m.status.text != "" {
		line := m.status.String()
		if m.status.level >= levelWarning {
			line = errorStyle.Render(line)
		} else {
			line = mutedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	var bindings []key.Binding
	if m.editing {
		bindings = []key.Binding{DefaultKeyMap.Next, DefaultKeyMap.Apply, DefaultKeyMap.Cancel}
	} else {
		bindings = []key.Binding{
			DefaultKeyMap.Left, DefaultKeyMap.Right, DefaultKeyMap.Up, DefaultKeyMap.Down,
			DefaultKeyMap.ZoomIn, DefaultKeyMap.ZoomOut, DefaultKeyMap.Reset,
			DefaultKeyMap.Landmark, DefaultKeyMap.Edit, DefaultKeyMap.Quit,
		}
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// runTUI runs the interactive viewport until the user quits.
// The last image is copied to keep when keep is not empty.
func runTUI(c *viewport.Controller, surface *fileSurface, logger *statusLogger, keep string) error {
	p := tea.NewProgram(NewModel(c, surface), tea.WithAltScreen())
	logger.attach(p.Send)

	_, err := p.Run()
	logger.attach(nil)
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if keep != "" {
		c.Wait()
		if err := surface.Save(keep); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "last render saved to %q\n", keep)
	}
	return nil
}
