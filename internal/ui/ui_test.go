package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rover-radar.klederson.com/internal/bluetooth"
)

func TestSpeedGauge(t *testing.T) {
	assert.Equal(t, "[          ]", SpeedGauge(0, 10))
	assert.Equal(t, "[====      ]", SpeedGauge(120, 10))
	assert.Equal(t, "[==========]", SpeedGauge(255, 10))
	assert.Equal(t, "[==========]", SpeedGauge(999, 10))
	assert.Equal(t, "", SpeedGauge(100, 0))
}

func TestRenderDeviceListHeight(t *testing.T) {
	rssi := -60
	ps := []bluetooth.Peripheral{
		{ID: "AA:BB", Name: "HMSoft", RSSI: &rssi, State: bluetooth.StateConnected},
		{ID: "CC:DD"},
	}
	for _, h := range []int{6, 12, 30} {
		out := RenderDeviceList(ps, 40, h, 1, false)
		assert.Len(t, strings.Split(out, "\n"), h)
	}

	out := RenderDeviceList(ps, 40, 30, 0, false)
	assert.Contains(t, out, "PERIPHERALS [2]")
	assert.Contains(t, out, "HMSoft")
	assert.Contains(t, out, "[Connected]")
	assert.Contains(t, out, "[unnamed]")
	assert.Contains(t, out, "--- dBm")
}

func TestRenderDeviceListEmpty(t *testing.T) {
	assert.Contains(t, RenderDeviceList(nil, 40, 12, 0, true), "Scanning...")
	assert.Contains(t, RenderDeviceList(nil, 40, 12, 0, false), "Press S to scan")
}

func TestRenderDetailPanel(t *testing.T) {
	rssi := -55
	p := &bluetooth.Peripheral{ID: "AA", Name: "Rover-01", RSSI: &rssi, Manufacturer: "Nordic", LastSeen: time.Now()}
	out := RenderDetailPanel(p, 70, 30, []float64{-70, -60, -55}, 120)
	assert.Contains(t, out, "Rover-01")
	assert.Contains(t, out, "Nordic")
	assert.Contains(t, out, "-55 dBm")
	assert.Contains(t, out, "RSSI History")

	empty := RenderDetailPanel(nil, 70, 20, nil, 120)
	assert.Contains(t, empty, "Nothing selected")
}

func TestRenderStatusBarNotice(t *testing.T) {
	out := RenderStatusBar(120, Status{Connected: true, Peripherals: 3, Speed: 120, Notice: "link lost"})
	assert.Contains(t, out, "[CONNECTED]")
	assert.Contains(t, out, "Peripherals: 3")
	assert.Contains(t, out, "link lost")
}

func TestRenderPrompt(t *testing.T) {
	out := RenderPrompt(80, 20, "Please scan and connect a BLE device first", "Scan")
	assert.Contains(t, out, "Please scan and connect a BLE device first")
	assert.Contains(t, out, "[Y] Scan")
	assert.Len(t, strings.Split(out, "\n"), 20)
}

func TestRenderSparkline(t *testing.T) {
	assert.Equal(t, "", renderSparkline(nil, 10))
	assert.Equal(t, "_^", renderSparkline([]float64{-80, -40}, 10))
	assert.Len(t, renderSparkline(make([]float64, 50), 10), 10)
}

func TestTruncRaw(t *testing.T) {
	assert.Equal(t, "abc  ", truncRaw("abc", 5))
	assert.Equal(t, "abcde", truncRaw("abcdefg", 5))
}
