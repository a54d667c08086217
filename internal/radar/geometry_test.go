package radar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellBearing(t *testing.T) {
	assert.InDelta(t, 0.0, CellBearing(5, 10, 10, 10), 0.001, "left along the baseline")
	assert.InDelta(t, 90.0, CellBearing(10, 4, 10, 10), 0.001, "straight ahead")
	assert.InDelta(t, 180.0, CellBearing(15, 10, 10, 10), 0.001, "right along the baseline")
	assert.Equal(t, -1.0, CellBearing(10, 11, 10, 10), "below the baseline")
}

func TestPolarRoundTrip(t *testing.T) {
	for _, a := range Angles {
		col, row := Polar(float64(a), 20, 30, 20)
		assert.InDelta(t, float64(a), CellBearing(col, row, 30, 20), 4.0, "angle %d", a)
		assert.InDelta(t, 20.0, CellDistance(col, row, 30, 20), 1.5, "angle %d", a)
	}

	left, _ := Polar(30, 10, 30, 20)
	right, _ := Polar(150, 10, 30, 20)
	assert.Less(t, left, 30, "30 degrees is drawn on the left")
	assert.Greater(t, right, 30)
}

func TestRingRadius(t *testing.T) {
	assert.InDelta(t, 10.0, RingRadius(1, 30), 0.001)
	assert.InDelta(t, 30.0, RingRadius(3, 30), 0.001)
}

func TestClampBearing(t *testing.T) {
	assert.Equal(t, 0.0, ClampBearing(-5))
	assert.Equal(t, 180.0, ClampBearing(200))
	assert.Equal(t, 42.0, ClampBearing(42))
}
