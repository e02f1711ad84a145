package input

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aacamara/cscx-mvp6-sub000/internal/styles"
)

// Model wraps the message textarea.
type Model struct {
	textarea textarea.Model
	width    int
}

// New creates a new input model.
func New(width int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about this customer..."
	ta.Focus()
	ta.CharLimit = 4096
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetKeys("shift+enter")
	ta.FocusedStyle.Placeholder = ta.FocusedStyle.Placeholder.Foreground(styles.Muted)
	ta.BlurredStyle.Placeholder = ta.BlurredStyle.Placeholder.Foreground(styles.Muted)

	return Model{
		textarea: ta,
		width:    width,
	}
}

// Init initializes the input component.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the input component.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the input component.
func (m Model) View() string {
	return m.textarea.View()
}

// Value returns the current input text.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetValue replaces the current input text.
func (m *Model) SetValue(v string) {
	m.textarea.SetValue(v)
	m.textarea.CursorEnd()
}

// Clear empties the input.
func (m *Model) Clear() {
	m.textarea.Reset()
}

// Focus gives the textarea focus.
func (m *Model) Focus() tea.Cmd {
	return m.textarea.Focus()
}

// Blur removes focus.
func (m *Model) Blur() {
	m.textarea.Blur()
}

// SetWidth updates the input width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.textarea.SetWidth(width - 4)
}
