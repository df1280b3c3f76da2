package chat

import (
	"fmt"
	"strings"

	"memochat/internal/conversation"
)

// View renders the full chat screen.
func (m Model) View() string {
	if !m.ready {
		return "starting…"
	}

	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.orch.Messages() {
		switch msg.Role {
		case conversation.RoleUser:
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserText.Render(msg.Text))
			sb.WriteString("\n")
		default:
			sb.WriteString(m.styles.AssistantLabel.Render("memochat") + "\n")
			sb.WriteString(m.renderAssistant(msg))
		}
	}
	return sb.String()
}

// renderAssistant renders one assistant bubble according to its kind.
func (m Model) renderAssistant(msg conversation.Message) string {
	if msg.Status == conversation.StatusPending {
		return m.spinner.View() + " " + m.styles.Muted.Render(msg.Text) + "\n"
	}

	var sb strings.Builder
	switch msg.Kind {
	case conversation.KindError:
		sb.WriteString(m.styles.ErrorText.Render(msg.Text))
		sb.WriteString("\n")

	case conversation.KindRetrieve:
		sb.WriteString(m.styles.AssistantText.Render(msg.Text))
		if msg.Translated {
			sb.WriteString(" " + m.styles.Tag.Render("[translated]"))
		}
		sb.WriteString("\n")
		if n := msg.MoreCount(); n > 0 {
			sb.WriteString(m.styles.Muted.Render(overflowLabel(n)+" (Ctrl+E)") + "\n")
			if msg.Expanded {
				for _, candidate := range msg.More {
					sb.WriteString(m.styles.AssistantText.Render("  • "+candidate.Text) + "\n")
				}
			}
		}

	case conversation.KindClarify:
		sb.WriteString(m.styles.AssistantText.Render(msg.Text))
		if msg.Translated {
			sb.WriteString(" " + m.styles.Tag.Render("[translated]"))
		}
		sb.WriteString("\n")
		sb.WriteString(m.styles.ClarifyHint.Render(clarifyHint(msg.ClarifyOptions)) + "\n")

	default: // KindPlain
		sb.WriteString(m.styles.AssistantText.Render(msg.Text))
		if msg.Translated {
			sb.WriteString(" " + m.styles.Tag.Render("[translated]"))
		}
		if msg.Duplicate {
			sb.WriteString(" " + m.styles.Muted.Render("(similar memory already saved)"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStatusBar() string {
	if m.status != "" {
		return m.styles.StatusBar.Render(m.status)
	}
	if m.orch.Busy() {
		return m.styles.StatusBar.Render("Waiting for an answer… (input disabled)")
	}
	return m.styles.StatusBar.Render("Enter to send · Ctrl+F answer clarification · Ctrl+S/Ctrl+R force store/find · Ctrl+E more results · Esc quit")
}

// overflowLabel is the toggle label for candidates beyond the primary answer.
func overflowLabel(n int) string {
	return fmt.Sprintf("Also found %d more", n)
}

// clarifyHint summarizes how to answer an open clarification.
func clarifyHint(options []string) string {
	if len(options) == 0 {
		return "Ctrl+F to answer"
	}
	return "Ctrl+S to store it, Ctrl+R to search, or Ctrl+F to answer"
}
