package bluetooth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tinygo.org/x/bluetooth"
)

func TestPeripheralDisplayAndSymbol(t *testing.T) {
	p := Peripheral{ID: "AA"}
	assert.Equal(t, "[unnamed]", p.DisplayName())
	assert.Equal(t, "*", p.Symbol())

	p.Name = "HMSoft"
	p.State = StateConnecting
	assert.Equal(t, "HMSoft", p.DisplayName())
	assert.Equal(t, "~", p.Symbol())

	p.State = StateConnected
	assert.Equal(t, "#", p.Symbol())
	assert.Equal(t, "Connected", p.State.String())
}

func TestPeripheralDistance(t *testing.T) {
	p := Peripheral{}
	assert.Equal(t, -1.0, p.Distance(-59, 2.5))

	rssi := -59
	p.RSSI = &rssi
	assert.InDelta(t, 1.0, p.Distance(-59, 2.5), 0.001)
}

func TestRSSIToDistance(t *testing.T) {
	assert.Equal(t, 0.1, RSSIToDistance(0, -59, 2.5))
	assert.InDelta(t, 10.0, RSSIToDistance(-84, -59, 2.5), 0.01)
	assert.Equal(t, 0.1, RSSIToDistance(-10, -59, 2.5))
}

func TestManufacturerLabel(t *testing.T) {
	assert.Equal(t, "Texas Inst.", ManufacturerLabel(0x000D))
	assert.Equal(t, "0xBEEF", ManufacturerLabel(0xBEEF))
	assert.Equal(t, "", LookupManufacturer(0xBEEF))
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"0000ffe1-0000-1000-8000-00805f9b34fb": "ffe1",
		"0000FFE0-0000-1000-8000-00805F9B34FB": "ffe0",
		"ffe1":                                 "ffe1",
		"19b10000-e8f2-537e-4f6c-d104768a1214": "19b10000-e8f2-537e-4f6c-d104768a1214",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeID(in), in)
	}
}

func TestParseUUIDShortForm(t *testing.T) {
	u, err := parseUUID("ffe0")
	assert.NoError(t, err)
	assert.Equal(t, bluetooth.New16BitUUID(0xffe0), u)
	assert.Equal(t, "ffe0", uuidID(u))

	_, err = parseUUID("zzzz")
	assert.Error(t, err)
}
