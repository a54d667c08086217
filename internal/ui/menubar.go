package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rover-radar.klederson.com/internal/config"
)

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, adapter string, demo, scanning, connected bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"S", "can"},
		{"R", "adar"},
		{"X", " drop"},
		{"?", " help"},
		{"Q", "uit"},
	}

	var menu strings.Builder
	for _, k := range keys {
		menu.WriteString("  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label))
	}

	var status string
	switch {
	case connected:
		status = StyleStatusLinked.Render("LINKED")
	case scanning:
		status = StyleStatusScanning.Render("SCANNING")
	default:
		status = StyleStatusIdle.Render("IDLE")
	}

	if demo {
		adapter = "demo"
	}
	adapterInfo := StyleMenuLabel.Render(fmt.Sprintf("Adapter: %s", adapter))

	left := StyleMenuKey.Render(title) + menu.String()
	right := status + "  " + adapterInfo + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2 // bar padding
	if gap < 0 {
		gap = 0
	}

	return StyleMenuBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
