package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"memochat/internal/conversation"
)

const inputHeight = 4

// Update is the tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			return m.handleSubmit()

		case "ctrl+e":
			if id := latestOverflowID(m.orch.Messages()); id != "" {
				m.orch.ToggleMore(id)
			}
			return m, nil

		case "ctrl+f":
			if m.followTarget != "" {
				m.followTarget = ""
				m.status = ""
				m.textarea.Placeholder = "Tell me something to remember, or ask me where things are…"
				return m, nil
			}
			if id := latestClarifyID(m.orch.Messages()); id != "" {
				m.followTarget = id
				m.status = "Answering the clarification — Enter sends, Ctrl+F cancels"
				m.textarea.Placeholder = "Type your answer…"
			}
			return m, nil

		case "ctrl+s", "ctrl+r":
			action := "store"
			if msg.String() == "ctrl+r" {
				action = "retrieve"
			}
			if id := latestClarifyID(m.orch.Messages()); id != "" {
				if err := m.orch.Choose(id, action); err != nil {
					m.log.Warn("forced choice rejected", zap.Error(err))
				}
				m.refreshViewport()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatHeight := msg.Height - inputHeight - 2
		if chatHeight < 1 {
			chatHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, chatHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = chatHeight
		}
		m.textarea.SetWidth(msg.Width - 4)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		if m.anyPending() {
			m.refreshViewport()
		}
		return m, spCmd

	case conversationMsg:
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, m.waitEvent()

	case eventsClosedMsg:
		return m, tea.Quit
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// handleSubmit routes Enter to the primary input or an open follow-up.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()

	if m.followTarget != "" {
		target := m.followTarget
		if _, err := m.orch.FollowUp(target, text); err != nil {
			m.status = submitErrorStatus(err)
			return m, nil
		}
		m.followTarget = ""
		m.status = ""
		m.textarea.Reset()
		m.textarea.Placeholder = "Tell me something to remember, or ask me where things are…"
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	if _, err := m.orch.Submit(text); err != nil {
		m.status = submitErrorStatus(err)
		return m, nil
	}
	m.status = ""
	m.textarea.Reset()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func submitErrorStatus(err error) string {
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		return "Nothing to send"
	case errors.Is(err, conversation.ErrBusy):
		return "Still waiting for the previous answer…"
	case errors.Is(err, conversation.ErrNotClarify), errors.Is(err, conversation.ErrUnknownMessage):
		return "That clarification is no longer open"
	default:
		return "Could not send"
	}
}

func (m *Model) refreshViewport() {
	if m.ready {
		m.viewport.SetContent(m.renderHistory())
	}
}

func (m Model) anyPending() bool {
	for _, msg := range m.orch.Messages() {
		if msg.Status == conversation.StatusPending {
			return true
		}
	}
	return false
}
