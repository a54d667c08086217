package radar

import (
	"math"

	"rover-radar.klederson.com/internal/config"
)

// The radar is a half disc standing on its baseline. Bearings are servo
// degrees: 0 points left along the baseline, 90 straight ahead, 180 right.

// CellDistance computes the distance from a cell to the radar origin,
// accounting for terminal aspect ratio.
func CellDistance(col, row, originX, originY int) float64 {
	dx := float64(col - originX)
	dy := float64(row-originY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellBearing returns the bearing of a cell in degrees, or -1 for cells
// below the baseline.
func CellBearing(col, row, originX, originY int) float64 {
	if row > originY {
		return -1
	}
	dx := float64(col - originX)
	dy := float64(originY-row) / config.AspectRatio
	return math.Atan2(dy, -dx) * 180 / math.Pi
}

// Polar converts a bearing and radius into a cell.
func Polar(bearing, radius float64, originX, originY int) (col, row int) {
	rad := bearing * math.Pi / 180
	col = originX - int(math.Round(radius*math.Cos(rad)))
	row = originY - int(math.Round(radius*math.Sin(rad)*config.AspectRatio))
	return col, row
}

// RingRadius returns the radius of the 1-based ring n.
func RingRadius(n int, radius float64) float64 {
	return radius * float64(n) / float64(config.RingCount)
}

// RingChar returns the arc character for a ring cell at bearing.
func RingChar(bearing float64) rune {
	switch {
	case bearing < 22.5:
		return '-'
	case bearing < 67.5:
		return '/'
	case bearing < 112.5:
		return '-'
	case bearing < 157.5:
		return '\\'
	default:
		return '-'
	}
}

// ClampBearing bounds a bearing to the half disc.
func ClampBearing(b float64) float64 {
	return math.Max(0, math.Min(180, b))
}
