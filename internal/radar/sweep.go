package radar

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"rover-radar.klederson.com/internal/config"
)

// Sweep mirrors the rover's servo: the beam swings 0 to 180 degrees and
// back. A sweep command kicks a spring-damped pulse that brightens the
// display while the sample is on its way.
type Sweep struct {
	Angle     float64 // current bearing in degrees [0, 180]
	Rising    bool    // beam moving towards 180
	StartTime time.Time

	spring   harmonica.Spring
	pulse    float64
	velocity float64
}

// NewSweep creates a sweep starting at bearing 0.
func NewSweep() *Sweep {
	return &Sweep{
		Rising:    true,
		StartTime: time.Now(),
		spring:    harmonica.NewSpring(harmonica.FPS(config.TargetFPS), 4.0, 0.35),
	}
}

// Update advances the beam from elapsed time and steps the pulse spring
// by one frame.
func (s *Sweep) Update() {
	s.advance(time.Since(s.StartTime))
	s.pulse, s.velocity = s.spring.Update(s.pulse, s.velocity, 0)
}

func (s *Sweep) advance(elapsed time.Duration) {
	period := 60.0 / float64(config.SweepSpeedRPM)
	phase := math.Mod(elapsed.Seconds(), period) / period
	if phase < 0.5 {
		s.Angle = phase * 2 * 180
		s.Rising = true
		return
	}
	s.Angle = (1 - phase) * 2 * 180
	s.Rising = false
}

// Kick starts a pulse at full brightness.
func (s *Sweep) Kick() {
	s.pulse = 1
	s.velocity = 0
}

// Pulse returns the current pulse level in [0, 1].
func (s *Sweep) Pulse() float64 {
	return math.Max(0, math.Min(1, s.pulse))
}

// Intensity returns the glow intensity [0, 1] for a bearing. The beam
// leaves a trail of SweepTrailDeg degrees behind it.
func (s *Sweep) Intensity(bearing float64) float64 {
	if bearing < 0 {
		return 0
	}
	diff := s.Angle - bearing
	if !s.Rising {
		diff = -diff
	}

	trail := config.SweepTrailDeg
	if diff < 0 || diff > trail {
		return 0
	}
	return 1.0 - diff/trail
}
