// Package chat provides the interactive TUI chat interface for memochat.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"memochat/internal/conversation"
)

// Messages for tea updates.
type (
	// conversationMsg announces a message log change from the orchestrator.
	conversationMsg conversation.Event
	// eventsClosedMsg means the orchestrator shut down.
	eventsClosedMsg struct{}
)

// Config holds everything the chat model needs from the outside.
type Config struct {
	Orchestrator *conversation.Orchestrator
	Logger       *zap.Logger
}

// Model is the bubbletea model for the chat interface. All conversation
// state lives in the orchestrator; the model only holds UI state.
type Model struct {
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles

	orch *conversation.Orchestrator
	log  *zap.Logger

	width  int
	height int
	ready  bool

	// followTarget is the clarify message id the input box is currently
	// answering; empty means input goes to the primary exchange.
	followTarget string
	status       string
}

// NewModel creates the chat model.
func NewModel(cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Tell me something to remember, or ask me where things are…"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return Model{
		textarea: ta,
		spinner:  sp,
		styles:   DefaultStyles(),
		orch:     cfg.Orchestrator,
		log:      log,
	}
}

// Init starts the cursor blink, the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitEvent())
}

// waitEvent blocks on the orchestrator's change feed and turns each event
// into a tea message. Re-issued after every delivery.
func (m Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.orch.Events()
		if !ok {
			return eventsClosedMsg{}
		}
		return conversationMsg(ev)
	}
}
