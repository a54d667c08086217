package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rover-radar.klederson.com/internal/config"
)

// Status is what the bottom bar reports.
type Status struct {
	Scanning    bool
	Connected   bool
	Peripherals int
	Connecting  int
	Speed       int
	SweepDeg    float64
	Notice      string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	var state string
	switch {
	case s.Connected:
		state = StyleStatusLinked.Render("[CONNECTED]")
	case s.Connecting > 0:
		state = StyleStatusScanning.Render("[CONNECTING]")
	case s.Scanning:
		state = StyleStatusScanning.Render("[SCANNING]")
	default:
		state = StyleStatusIdle.Render("[IDLE]")
	}

	info := fmt.Sprintf(" Peripherals: %d  Speed: %s %3d  Servo: %3ddeg",
		s.Peripherals, SpeedGauge(s.Speed, 10), s.Speed, int(s.SweepDeg))

	content := state + StyleStatusBar.Render(info)
	if s.Notice != "" {
		content += "  " + StyleNotice.Render(s.Notice)
	}

	gap := width - lipgloss.Width(content) - 2 // bar padding
	if gap < 0 {
		gap = 0
	}

	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}

// SpeedGauge draws the slider position as a fixed-width bar.
func SpeedGauge(speed, width int) string {
	if width < 1 {
		return ""
	}
	filled := speed * width / config.MaxSpeed
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
