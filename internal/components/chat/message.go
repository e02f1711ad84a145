package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aacamara/cscx-mvp6-sub000/internal/styles"
	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

// renderTurn renders one transcript entry with the given width.
func renderTurn(turn assistant.Turn, width int) string {
	var sb strings.Builder

	switch turn.Role {
	case assistant.RoleUser:
		sb.WriteString(styles.UserLabel.Render("You"))
		sb.WriteString("\n")
	case assistant.RoleAssistant:
		label := "Assistant"
		if turn.AgentLabel != "" {
			label = turn.AgentLabel
		}
		sb.WriteString(styles.AssistantLabel.Render(label))
		sb.WriteString("\n")
	case assistant.RoleSystem:
		sb.WriteString(styles.SystemMessage.Width(width - 2).Render(turn.Content))
		sb.WriteString("\n")
		return sb.String()
	}

	content := turn.DisplayContent()
	if turn.Role == assistant.RoleAssistant && turn.Finalized() && content != "" {
		// Markdown rendering only once the turn stops changing; partial
		// markdown mid-stream renders badly.
		if rendered, err := renderMarkdown(content, width-4); err == nil {
			content = strings.TrimSpace(rendered)
		}
	}

	if turn.IsStreaming {
		content += styles.StreamingCursor.Render("▊")
	}

	switch turn.Role {
	case assistant.RoleUser:
		sb.WriteString(styles.UserMessage.Width(width - 2).Render(content))
	case assistant.RoleAssistant:
		sb.WriteString(styles.AssistantMessage.Width(width - 2).Render(content))
	}

	if trace := renderToolTrace(turn); trace != "" {
		sb.WriteString("\n")
		sb.WriteString(trace)
	}

	return sb.String()
}

// renderToolTrace shows which tools the agent used for a finalized turn.
func renderToolTrace(turn assistant.Turn) string {
	if turn.Final == nil || len(turn.Final.ToolsUsed) == 0 {
		return ""
	}

	names := make([]string, len(turn.Final.ToolsUsed))
	for i, name := range turn.Final.ToolsUsed {
		names[i] = styles.ToolName.Render(name)
	}
	return styles.ToolLine.Render("used " + strings.Join(names, ", "))
}

// renderMarkdown renders markdown content for the terminal.
func renderMarkdown(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content, err
	}
	return r.Render(content)
}
