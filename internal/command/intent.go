// Package command turns rover intents into the single-byte control values
// written to the bridge characteristic.
package command

import "rover-radar.klederson.com/internal/config"

// Direction is a movement heading. Each one owns a 64-value band of the
// command byte.
type Direction int

const (
	Forward Direction = iota
	Backward
	Right
	Left
)

var directionNames = [...]string{"forward", "backward", "right", "left"}

func (d Direction) String() string {
	if d < Forward || d > Left {
		return "unknown"
	}
	return directionNames[d]
}

// Offset returns the base command value for the direction.
func (d Direction) Offset() int {
	switch d {
	case Left:
		return 192
	case Right:
		return 128
	case Backward:
		return 64
	default:
		return 0
	}
}

// Kind separates movement from the radar sweep request.
type Kind int

const (
	KindMove Kind = iota
	KindRadarSweep
)

// Intent is one logical command from the operator.
type Intent struct {
	Kind      Kind
	Direction Direction
}

// RadarSweepValue asks the rover to sweep its sensor and notify a sample.
const RadarSweepValue byte = 52

// RadarSweep requests a radar sample.
var RadarSweep = Intent{Kind: KindRadarSweep}

// Move returns a movement intent.
func Move(d Direction) Intent {
	return Intent{Kind: KindMove, Direction: d}
}

func (i Intent) String() string {
	if i.Kind == KindRadarSweep {
		return "radar-sweep"
	}
	return "move-" + i.Direction.String()
}

// Encode computes the command byte: the direction offset plus speed/5 with
// integer truncation. The radar sweep is always RadarSweepValue.
func Encode(i Intent, speed int) byte {
	if i.Kind == KindRadarSweep {
		return RadarSweepValue
	}
	return byte(i.Direction.Offset() + ClampSpeed(speed)/5)
}

// ClampSpeed bounds a slider value to 0..config.MaxSpeed.
func ClampSpeed(speed int) int {
	if speed < 0 {
		return 0
	}
	if speed > config.MaxSpeed {
		return config.MaxSpeed
	}
	return speed
}
