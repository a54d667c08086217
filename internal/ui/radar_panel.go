package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderRadarPanel wraps radar content with a styled border.
// The actual radar rendering is done externally to avoid import cycles.
func RenderRadarPanel(width, height int, radarContent, legend string, updated time.Time) string {
	innerW := width - 4
	title := StylePanelTitle.Render("RADAR")
	hint := StyleHelp.Render("[R] sweep  [ESC]")
	age := StyleHelp.Render("waiting for sample")
	if !updated.IsZero() {
		age = StyleDeviceRSSI.Render(fmt.Sprintf("sample %s", formatLastSeen(updated)))
	}
	gap := innerW - lipgloss.Width(title) - lipgloss.Width(age) - lipgloss.Width(hint) - 2
	if gap < 1 {
		gap = 1
	}
	header := title + " " + age + strings.Repeat(" ", gap) + hint

	content := header + "\n" + radarContent + "\n" + legend
	return StylePanelActive.Width(width - 2).Height(height - 2).Render(content)
}
