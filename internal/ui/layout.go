package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the main panel and peripheral list horizontally,
// with menu bar on top and status bar plus help line at the bottom.
func ComposeLayout(menuBar, mainPanel, deviceList, statusBar, helpLine string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, mainPanel, deviceList)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar, helpLine)
}
