package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

// Model renders transcript snapshots inside a scrollable viewport. It never
// mutates turns; the engine owns them.
type Model struct {
	viewport viewport.Model
	turns    []assistant.Turn
	width    int
	height   int
	ready    bool
}

// New creates a new chat model.
func New(width, height int) Model {
	vp := viewport.New(width, height)
	vp.SetContent("")

	return Model{
		viewport: vp,
		width:    width,
		height:   height,
		ready:    true,
	}
}

// Init initializes the chat component.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chat component.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			m.viewport.ViewUp()
		case "pgdown":
			m.viewport.ViewDown()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the chat component.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// SetTurns replaces the rendered transcript snapshot.
func (m *Model) SetTurns(turns []assistant.Turn) {
	m.turns = turns
	m.updateContent()
}

// SetSize updates the chat dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.updateContent()
}

// IsEmpty returns true if there are no turns to show.
func (m Model) IsEmpty() bool {
	return len(m.turns) == 0
}

// updateContent rebuilds the viewport content from the snapshot.
func (m *Model) updateContent() {
	var content strings.Builder

	for i, turn := range m.turns {
		content.WriteString(renderTurn(turn, m.width))
		if i < len(m.turns)-1 {
			content.WriteString("\n")
		}
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}
