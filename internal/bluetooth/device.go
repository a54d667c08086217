package bluetooth

import (
	"math"
	"time"
)

// ConnectionState is the lifecycle stage of a discovered peripheral.
type ConnectionState int

const (
	StateDiscovered ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Discovered"
	}
}

// Peripheral is one discovered device. Values handed out by the Registry
// are snapshots and must be treated as read-only.
type Peripheral struct {
	ID           string
	Name         string
	RSSI         *int // nil until an advertisement or read reports one
	State        ConnectionState
	Manufacturer string
	LastSeen     time.Time
}

// Symbol returns the list glyph for the connection state.
func (p *Peripheral) Symbol() string {
	switch p.State {
	case StateConnecting:
		return "~"
	case StateConnected:
		return "#"
	default:
		return "*"
	}
}

// DisplayName returns the device name or "[unnamed]" if empty.
func (p *Peripheral) DisplayName() string {
	if p.Name == "" {
		return "[unnamed]"
	}
	return p.Name
}

// SignalStrength returns the last known RSSI in dBm.
func (p *Peripheral) SignalStrength() (int, bool) {
	if p.RSSI == nil {
		return 0, false
	}
	return *p.RSSI, true
}

// Distance estimates the distance in meters from the last RSSI, or -1
// when no reading exists.
func (p *Peripheral) Distance(measuredPower, pathLossExp float64) float64 {
	rssi, ok := p.SignalStrength()
	if !ok {
		return -1
	}
	return RSSIToDistance(float64(rssi), measuredPower, pathLossExp)
}

// RSSIToDistance estimates distance from RSSI using the log-distance path loss model.
// Formula: d = 10^((measuredPower - rssi) / (10 * n))
func RSSIToDistance(rssi, measuredPower, pathLossExp float64) float64 {
	if rssi >= 0 {
		return 0.1
	}
	d := math.Pow(10, (measuredPower-rssi)/(10*pathLossExp))
	if d < 0.1 {
		return 0.1
	}
	return d
}
