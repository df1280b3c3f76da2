package chat

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the chat view.
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	ErrorText      lipgloss.Style
	Muted          lipgloss.Style
	Tag            lipgloss.Style
	ClarifyHint    lipgloss.Style
	StatusBar      lipgloss.Style
}

// DefaultStyles returns the default chat styling.
func DefaultStyles() Styles {
	return Styles{
		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginTop(1),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).MarginTop(1),
		UserText:       lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		AssistantText:  lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		ErrorText:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Muted:          lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Tag:            lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true),
		ClarifyHint:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		StatusBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1),
	}
}
