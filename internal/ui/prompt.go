package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// RenderPrompt centers a confirmation box over the whole screen.
func RenderPrompt(width, height int, message, accept string) string {
	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		StylePromptAccept.Render("[Y] "+accept),
		"  ",
		StylePromptCancel.Render("[N] Cancel"),
	)
	body := lipgloss.JoinVertical(lipgloss.Center,
		StyleDeviceName.Render(message),
		"",
		buttons,
	)
	box := StylePromptBox.Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
