package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/config"
)

// Cursor row style: black text on bright green = unmissable highlight
var cursorRowSty = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#000000")).
	Background(ColorMatrixGreen).
	Bold(true)

// RenderDeviceList renders the scrollable peripheral list. The header stays
// fixed at the top; only the entries scroll.
func RenderDeviceList(peripherals []bluetooth.Peripheral, width, height, cursorIndex int, scanning bool) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("PERIPHERALS [%d]", len(peripherals)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}
	headerCount := len(headerLines)

	innerH := height - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}

	devSpace := innerH - headerCount
	if devSpace < 1 {
		devSpace = 1
	}

	var devLines []string
	if len(peripherals) == 0 {
		devLines = append(devLines, "")
		if scanning {
			devLines = append(devLines, StyleHelp.Render(" Scanning..."))
		} else {
			devLines = append(devLines, StyleHelp.Render(" No peripherals"))
			devLines = append(devLines, StyleHelp.Render(" Press S to scan"))
		}
	} else {
		linesPerDevice := 4 // 3 content + 1 blank
		maxVisible := devSpace / linesPerDevice
		if maxVisible < 1 {
			maxVisible = 1
		}

		// Keep the cursor in view
		viewStart := 0
		if cursorIndex >= maxVisible {
			viewStart = cursorIndex - maxVisible + 1
		}

		count := 0
		for i := viewStart; i < len(peripherals); i++ {
			entry := renderDeviceEntry(&peripherals[i], innerW, i == cursorIndex)
			for _, l := range entry {
				if count >= devSpace {
					break
				}
				devLines = append(devLines, l)
				count++
			}
			if count >= devSpace {
				break
			}
		}
	}

	if len(devLines) > devSpace {
		devLines = devLines[:devSpace]
	}
	for len(devLines) < devSpace {
		devLines = append(devLines, "")
	}

	all := make([]string, 0, innerH)
	all = append(all, headerLines...)
	all = append(all, devLines...)
	if len(all) > innerH {
		all = all[:innerH]
	}

	content := strings.Join(all, "\n")
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(content)

	// lipgloss Height() only sets a minimum; it won't truncate overflow.
	outLines := strings.Split(rendered, "\n")
	if len(outLines) > height {
		outLines = outLines[:height]
	}
	for len(outLines) < height {
		outLines = append(outLines, "")
	}
	return strings.Join(outLines, "\n")
}

func renderDeviceEntry(p *bluetooth.Peripheral, maxW int, isCursor bool) []string {
	name := p.DisplayName()
	nameMax := maxW - 18
	if nameMax < 4 {
		nameMax = 4
	}
	if len(name) > nameMax {
		name = name[:nameMax]
	}

	cursor := "  "
	if isCursor {
		cursor = ">>"
	}

	id := p.ID
	if len(id) > maxW-8 {
		id = id[:maxW-8]
	}

	rssiStr := "--- dBm"
	distStr := ""
	if rssi, ok := p.SignalStrength(); ok {
		rssiStr = fmt.Sprintf("%ddBm", rssi)
		distStr = fmt.Sprintf("~%.1fm", p.Distance(config.MeasuredPower, config.PathLossExp))
	}
	state := "[" + p.State.String() + "]"

	if isCursor {
		raw1 := truncRaw(fmt.Sprintf("%s %s %s %s", cursor, p.Symbol(), name, state), maxW)
		raw2 := truncRaw(fmt.Sprintf("       %s", id), maxW)
		raw3 := truncRaw(fmt.Sprintf("       %s  %s", rssiStr, distStr), maxW)
		return []string{
			cursorRowSty.Render(raw1),
			cursorRowSty.Render(raw2),
			cursorRowSty.Render(raw3),
			"",
		}
	}

	line1 := fmt.Sprintf("   %s %s %s",
		StyleDeviceState.Render(p.Symbol()),
		StyleDeviceName.Render(name),
		StyleDeviceState.Render(state))
	line2 := fmt.Sprintf("       %s", StyleDeviceID.Render(id))
	line3 := fmt.Sprintf("       %s  %s", StyleDeviceRSSI.Render(rssiStr), StyleDeviceRSSI.Render(distStr))
	return []string{line1, line2, line3, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}
