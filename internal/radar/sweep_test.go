package radar

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepSwingsBackAndForth(t *testing.T) {
	s := NewSweep()

	s.advance(750 * time.Millisecond)
	assert.InDelta(t, 90.0, s.Angle, 0.001)
	assert.True(t, s.Rising)

	s.advance(2250 * time.Millisecond)
	assert.InDelta(t, 90.0, s.Angle, 0.001)
	assert.False(t, s.Rising)
}

func TestSweepTrailFollowsDirection(t *testing.T) {
	s := &Sweep{Angle: 90, Rising: true}
	assert.InDelta(t, 1.0, s.Intensity(90), 0.001)
	assert.InDelta(t, 0.6, s.Intensity(80), 0.001)
	assert.Equal(t, 0.0, s.Intensity(100), "ahead of the beam")

	s.Rising = false
	assert.InDelta(t, 0.6, s.Intensity(100), 0.001)
	assert.Equal(t, 0.0, s.Intensity(80))
	assert.Equal(t, 0.0, s.Intensity(-1))
}

func TestSweepPulseDecays(t *testing.T) {
	s := NewSweep()
	assert.Equal(t, 0.0, s.Pulse())

	s.Kick()
	assert.Equal(t, 1.0, s.Pulse())

	s.Update()
	assert.Less(t, s.Pulse(), 1.0)

	for i := 0; i < 600; i++ {
		s.Update()
	}
	assert.Less(t, s.Pulse(), 0.05)
}

func TestRenderPlacesOneMarkerPerVisibleAngle(t *testing.T) {
	out := Render(60, 20, ClassifyAll(roverSample), nil)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 20)
	for _, l := range lines {
		assert.Equal(t, 60, lipgloss.Width(l))
	}
	assert.Equal(t, 4, strings.Count(out, "o"), "150 is out of range and draws nothing")
	for _, a := range []string{"30", "60", "90", "120", "150"} {
		assert.Contains(t, out, a)
	}
}

func TestRenderTooSmall(t *testing.T) {
	assert.Empty(t, Render(8, 3, nil, NewSweep()))
}
