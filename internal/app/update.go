package app

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aacamara/cscx-mvp6-sub000/internal/messages"
	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

// Update handles panel messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.state == StateStreaming {
				m.requestStop()
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			if m.state == StateStreaming {
				return m, nil
			}
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			return m.send(content)

		case "ctrl+p":
			if m.state != StateStreaming {
				m.cycleQuickAction()
			}
			return m, nil
		}

	case messages.TranscriptChangedMsg:
		m.chat.SetTurns(m.conv.Turns())
		return m, nil

	case messages.SendFinishedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateIdle
			m.err = nil
		}
		m.chat.SetTurns(m.conv.Turns())
		cmds = append(cmds, m.input.Focus())
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)

	if m.state != StateStreaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// send dispatches the message to the engine on a background goroutine. The
// engine pushes transcript updates through the onChange callback; the command
// resolves once the turn is finalized.
func (m Model) send(content string) (tea.Model, tea.Cmd) {
	m.state = StateStreaming
	m.err = nil
	m.quickIdx = -1
	m.input.Clear()
	m.input.Blur()

	conv := m.conv
	cmd := func() tea.Msg {
		err := conv.Send(context.Background(), content)
		return messages.SendFinishedMsg{Err: err}
	}
	return m, cmd
}

// requestStop cancels the in-flight turn. The panel stays in the streaming
// state until SendFinishedMsg arrives with the finalized transcript.
func (m *Model) requestStop() {
	for _, turn := range m.conv.Turns() {
		if turn.IsStreaming {
			if err := m.conv.StopStreaming(turn.ID); err != nil && err != assistant.ErrNotStreaming {
				m.err = err
			}
			return
		}
	}
}

// cycleQuickAction rotates the phase's suggested prompts through the input.
func (m *Model) cycleQuickAction() {
	actions := m.conv.QuickActions()
	if len(actions) == 0 {
		return
	}
	m.quickIdx = (m.quickIdx + 1) % len(actions)
	m.input.SetValue(actions[m.quickIdx].Prompt)
}

// layout distributes the window between the header, transcript, quick-action
// hints, input and status bar.
func (m *Model) layout() {
	chatHeight := m.height - headerHeight - quickBarHeight - inputHeight - statusHeight
	if chatHeight < 3 {
		chatHeight = 3
	}
	m.chat.SetSize(m.width, chatHeight)
	m.input.SetWidth(m.width - 2)
}
