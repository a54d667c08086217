package ui

import "github.com/charmbracelet/lipgloss"

// Matrix color palette
var (
	ColorMatrixGreen  = lipgloss.Color("#00FF41")
	ColorGreen        = lipgloss.Color("#00CC33")
	ColorMidGreen     = lipgloss.Color("#008F11")
	ColorDimGreen     = lipgloss.Color("#004A0A")
	ColorPeripheral   = lipgloss.Color("#00FFAA")
	ColorBorderBright = lipgloss.Color("#00FF41")
	ColorBorderNorm   = lipgloss.Color("#00AA22")
	ColorError        = lipgloss.Color("#FF3300")
	ColorWarning      = lipgloss.Color("#FFAA00")
)

// Pre-built styles
var (
	StyleMenuBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleMenuLabel = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorGreen).
			Padding(0, 1)

	StyleStatusScanning = lipgloss.NewStyle().
				Foreground(ColorMatrixGreen).
				Bold(true)

	StyleStatusIdle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	StyleStatusLinked = lipgloss.NewStyle().
				Foreground(ColorPeripheral).
				Bold(true)

	StyleNotice = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderNorm)

	StylePanelActive = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderBright)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleDeviceName = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleDeviceID = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleDeviceRSSI = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleDeviceState = lipgloss.NewStyle().
				Foreground(ColorPeripheral)

	StyleSeparator = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDimGreen)

	StylePromptBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorWarning).
			Padding(1, 3)

	StylePromptAccept = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000000")).
				Background(ColorMatrixGreen).
				Bold(true).
				Padding(0, 1)

	StylePromptCancel = lipgloss.NewStyle().
				Foreground(ColorMidGreen).
				Padding(0, 1)
)
