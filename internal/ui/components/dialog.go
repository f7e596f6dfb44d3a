package components

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#273540")).
			Padding(1, 2).
			Width(48)

	dialogTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7f57b4")).
				Bold(true)

	dialogHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ba0bf"))
)

// ConfirmDialog renders a yes/no confirmation.
func ConfirmDialog(title, message string) string {
	body := dialogHintStyle.Render(SanitizeText(message))
	hint := dialogHintStyle.Render("\ny: confirm | n: cancel")
	return dialogStyle.Render(dialogTitleStyle.Render(title) + "\n\n" + body + hint)
}

// InputDialog frames an already rendered input field, such as a
// textinput.Model view.
func InputDialog(title, field string) string {
	hint := dialogHintStyle.Render("\nenter: apply | esc: cancel")
	return dialogStyle.Render(dialogTitleStyle.Render(title) + "\n\n" + field + hint)
}
