package radar

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rover-radar.klederson.com/internal/config"
)

var (
	colorBright = lipgloss.Color("#00FF41")
	colorMid    = lipgloss.Color("#008F11")
	colorDim    = lipgloss.Color("#004A0A")
	colorNear   = lipgloss.Color("#FF3B3B")
	colorMidObs = lipgloss.Color("#FFB000")
	colorFar    = lipgloss.Color("#00FFAA")

	styleOrigin = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing   = lipgloss.NewStyle().Foreground(colorMid)
	styleDot    = lipgloss.NewStyle().Foreground(colorDim)
	styleLabel  = lipgloss.NewStyle().Foreground(colorMid)

	bucketStyles = map[Bucket]lipgloss.Style{
		Near: lipgloss.NewStyle().Foreground(colorNear).Bold(true),
		Mid:  lipgloss.NewStyle().Foreground(colorMidObs).Bold(true),
		Far:  lipgloss.NewStyle().Foreground(colorFar).Bold(true),
	}
)

type marker struct {
	col, row int
	bucket   Bucket
}

type label struct {
	col, row int
	text     string
}

// Render draws the half-disc radar with one marker per classified angle.
// OutOfRange angles draw nothing.
func Render(width, height int, marks []Classification, sweep *Sweep) string {
	if width < 12 || height < 5 {
		return ""
	}

	originX := width / 2
	originY := height - 1
	radius := math.Min(float64(originX-4), float64(originY-1)/config.AspectRatio)
	if radius < 3 {
		radius = 3
	}

	ringRadii := make([]float64, config.RingCount)
	for i := range ringRadii {
		ringRadii[i] = RingRadius(i+1, radius)
	}

	markers := placeMarkers(marks, originX, originY, radius)
	labels := angleLabels(originX, originY, radius, width)

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if ch, ok := labelAt(labels, col, row); ok {
				sb.WriteString(styleLabel.Render(string(ch)))
				continue
			}
			sb.WriteString(renderCell(col, row, originX, originY, radius, ringRadii, sweep, markers))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func placeMarkers(marks []Classification, originX, originY int, radius float64) []marker {
	out := make([]marker, 0, len(marks))
	for _, m := range marks {
		ring := m.Bucket.Ring()
		if ring == 0 {
			continue
		}
		col, row := Polar(float64(m.Angle), RingRadius(ring, radius), originX, originY)
		out = append(out, marker{col: col, row: row, bucket: m.Bucket})
	}
	return out
}

// angleLabels puts the angle numbers just outside the outer ring.
func angleLabels(originX, originY int, radius float64, width int) []label {
	out := make([]label, 0, len(Angles))
	for _, a := range Angles {
		col, row := Polar(float64(a), radius+2, originX, originY)
		text := fmt.Sprintf("%d", a)
		col -= len(text) / 2
		if col < 0 {
			col = 0
		}
		if col+len(text) > width {
			col = width - len(text)
		}
		if row < 0 {
			row = 0
		}
		out = append(out, label{col: col, row: row, text: text})
	}
	return out
}

func labelAt(labels []label, col, row int) (byte, bool) {
	for _, l := range labels {
		if row == l.row && col >= l.col && col < l.col+len(l.text) {
			return l.text[col-l.col], true
		}
	}
	return 0, false
}

func renderCell(col, row, originX, originY int, radius float64, ringRadii []float64, sweep *Sweep, markers []marker) string {
	for _, m := range markers {
		if col == m.col && row == m.row {
			return renderMarker(m, sweep)
		}
	}

	bearing := CellBearing(col, row, originX, originY)
	if bearing < 0 {
		return " "
	}
	dist := CellDistance(col, row, originX, originY)
	if dist > radius+0.5 {
		return " "
	}

	if col == originX && row == originY {
		return styleOrigin.Render("^")
	}
	if row == originY {
		return renderSweepChar('_', sweep, bearing)
	}

	for _, ringR := range ringRadii {
		if math.Abs(dist-ringR) < 0.8 {
			return renderSweepChar(RingChar(bearing), sweep, bearing)
		}
	}

	return renderInteriorCell(sweep, bearing)
}

func renderMarker(m marker, sweep *Sweep) string {
	style := bucketStyles[m.bucket]
	if sweep != nil && sweep.Pulse() > 0.5 {
		style = style.Reverse(true)
	}
	return style.Render("o")
}

func renderSweepChar(ch rune, sweep *Sweep, bearing float64) string {
	color := sweepColor(glow(sweep, bearing))
	if color == "" {
		return styleRing.Render(string(ch))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(ch))
}

func renderInteriorCell(sweep *Sweep, bearing float64) string {
	color := sweepColor(glow(sweep, bearing))
	if color == "" {
		return styleDot.Render(".")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(".")
}

// glow combines the beam trail with the sweep-command pulse.
func glow(sweep *Sweep, bearing float64) float64 {
	if sweep == nil {
		return 0
	}
	return math.Max(sweep.Intensity(bearing), sweep.Pulse()*0.6)
}

func sweepColor(intensity float64) string {
	if intensity <= 0 {
		return ""
	}
	if intensity > 0.8 {
		return "#00FF41"
	}
	if intensity > 0.5 {
		return "#00CC33"
	}
	if intensity > 0.3 {
		return "#00AA22"
	}
	return "#005511"
}

// RenderLegend produces the bucket legend line.
func RenderLegend(width int) string {
	legend := bucketStyles[Near].Render(fmt.Sprintf("o <=%d", config.NearMax)) +
		"  " +
		bucketStyles[Mid].Render(fmt.Sprintf("o <=%d", config.MidMax)) +
		"  " +
		bucketStyles[Far].Render(fmt.Sprintf("o <=%d", config.FarMax))

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
