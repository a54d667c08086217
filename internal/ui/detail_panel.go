package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/config"
)

// RenderDetailPanel renders the selected peripheral and the drive controls.
// p may be nil when nothing is selected.
func RenderDetailPanel(p *bluetooth.Peripheral, width, height int, rssiHistory []float64, speed int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("PERIPHERAL")
	sep := StyleSeparator.Render(strings.Repeat("-", innerW))
	lines := []string{title, sep, ""}

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	if p == nil {
		lines = append(lines, StyleHelp.Render("  Nothing selected. S scans, ENTER connects."))
	} else {
		rssiText := "unknown"
		distText := "unknown"
		rssi, hasRSSI := p.SignalStrength()
		if hasRSSI {
			rssiText = fmt.Sprintf("%d dBm", rssi)
			distText = fmt.Sprintf("~%.1fm", p.Distance(config.MeasuredPower, config.PathLossExp))
		}
		manufacturer := p.Manufacturer
		if manufacturer == "" {
			manufacturer = "unknown"
		}

		fields := []struct{ label, value string }{
			{"Name", p.DisplayName()},
			{"ID", p.ID},
			{"Vendor", manufacturer},
			{"State", p.State.String()},
			{"RSSI", rssiText},
			{"Distance", distText},
			{"Last", formatLastSeen(p.LastSeen)},
		}
		for _, f := range fields {
			label := labelSty.Render(fmt.Sprintf("  %-10s", f.label))
			lines = append(lines, label+valSty.Render(f.value))
		}

		lines = append(lines, "")

		if hasRSSI {
			barWidth := innerW - 22
			if barWidth < 10 {
				barWidth = 10
			}
			bar := renderSignalBar(float64(rssi), barWidth)
			lines = append(lines, labelSty.Render("  Signal ")+bar+valSty.Render(fmt.Sprintf(" %ddBm", rssi)))
			lines = append(lines, "")
		}

		if len(rssiHistory) > 0 {
			sparkW := innerW - 4
			if sparkW < 10 {
				sparkW = 10
			}
			lines = append(lines, labelSty.Render("  RSSI History:"))
			lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(renderSparkline(rssiHistory, sparkW)))
			lines = append(lines, "")
		}
	}

	lines = append(lines, StyleSeparator.Render(strings.Repeat("-", innerW)))
	lines = append(lines, labelSty.Render("  Drive    ")+valSty.Render("W/A/S/D or arrows"))
	lines = append(lines, labelSty.Render("  Speed    ")+valSty.Render(SpeedGauge(speed, 20))+valSty.Render(fmt.Sprintf(" %d", speed))+StyleHelp.Render("  +/-"))

	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	if len(lines) > height-2 && height > 2 {
		lines = lines[:height-2]
	}

	content := strings.Join(lines, "\n")
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(content)
}

func renderSignalBar(rssi float64, width int) string {
	// Map RSSI -100..-30 to 0..width filled bars
	ratio := (rssi + 100.0) / 70.0
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(lipgloss.Color(proximityColor(rssi))).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

// proximityColor maps RSSI to a green shade (brighter = closer).
func proximityColor(rssi float64) string {
	if rssi > -50 {
		return "#00FF41"
	}
	if rssi > -60 {
		return "#00CC33"
	}
	if rssi > -70 {
		return "#00AA22"
	}
	if rssi > -80 {
		return "#008F11"
	}
	return "#005511"
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	rng := maxV - minV
	if rng < 1 {
		rng = 1
	}

	// Take last `width` values
	start := 0
	if len(values) > width {
		start = len(values) - width
	}

	var sb strings.Builder
	for i := start; i < len(values); i++ {
		idx := int((values[i] - minV) / rng * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		sb.WriteByte(chars[idx])
	}

	return sb.String()
}

func formatLastSeen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	if d < time.Second {
		return "now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm ago", int(d.Minutes()))
}
