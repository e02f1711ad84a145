package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aacamara/cscx-mvp6-sub000/internal/styles"
)

const (
	headerHeight   = 2
	quickBarHeight = 1
	inputHeight    = 5
	statusHeight   = 1
)

// View renders the panel.
func (m Model) View() string {
	if !m.ready {
		return "Starting assistant panel..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.chat.View())
	b.WriteString("\n")
	b.WriteString(m.quickActionsView())
	b.WriteString("\n")
	b.WriteString(m.inputView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) headerView() string {
	sctx := m.conv.Context()
	title := styles.Header.Render("Success Copilot")
	subject := sctx.SubjectName
	if subject == "" {
		subject = "no customer selected"
	}
	ctx := styles.HeaderContext.Render(fmt.Sprintf("%s · %s", subject, sctx.Phase))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", ctx)
}

func (m Model) quickActionsView() string {
	actions := m.conv.QuickActions()
	if len(actions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(actions))
	for i, a := range actions {
		label := a.Label
		if i == m.quickIdx {
			label = "▸ " + label
		}
		parts = append(parts, styles.QuickAction.Render(label))
	}
	hint := styles.QuickActionLabel.Render("ctrl+p:")
	return hint + " " + strings.Join(parts, " ")
}

func (m Model) inputView() string {
	if m.state == StateStreaming {
		return styles.SystemMessage.Render("Assistant is responding... (esc to stop)")
	}
	return m.input.View()
}

func (m Model) statusView() string {
	switch m.state {
	case StateStreaming:
		return styles.StatusBarStreaming.Render("streaming · esc to stop")
	case StateError:
		msg := "request failed"
		if m.err != nil {
			msg = m.err.Error()
		}
		return styles.StatusBarError.Render(msg)
	default:
		return styles.StatusBar.Render("enter to send · ctrl+p quick actions · ctrl+c to quit")
	}
}
