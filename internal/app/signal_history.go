package app

import (
	"time"

	"rover-radar.klederson.com/internal/bluetooth"
)

// RSSIRing is a circular buffer for RSSI history values.
type RSSIRing struct {
	buf   []float64
	pos   int
	count int
}

// NewRSSIRing creates a new circular buffer with the given capacity.
func NewRSSIRing(capacity int) *RSSIRing {
	return &RSSIRing{
		buf: make([]float64, capacity),
	}
}

// Push adds a value to the ring buffer.
func (r *RSSIRing) Push(val float64) {
	r.buf[r.pos] = val
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns all stored values in chronological order.
func (r *RSSIRing) Values() []float64 {
	if r.count == 0 {
		return nil
	}
	result := make([]float64, r.count)
	if r.count < len(r.buf) {
		copy(result, r.buf[:r.count])
	} else {
		n := copy(result, r.buf[r.pos:])
		copy(result[n:], r.buf[:r.pos])
	}
	return result
}

// Len returns the number of stored values.
func (r *RSSIRing) Len() int {
	return r.count
}

// SignalHistory keeps one RSSI ring per peripheral for the detail
// sparkline. It only samples records whose LastSeen moved.
type SignalHistory struct {
	capacity int
	rings    map[string]*RSSIRing
	seen     map[string]time.Time
}

// NewSignalHistory creates a history with capacity samples per peripheral.
func NewSignalHistory(capacity int) *SignalHistory {
	return &SignalHistory{
		capacity: capacity,
		rings:    make(map[string]*RSSIRing),
		seen:     make(map[string]time.Time),
	}
}

// Record samples every record that changed since the last call.
func (h *SignalHistory) Record(records []bluetooth.Peripheral) {
	for i := range records {
		p := &records[i]
		rssi, ok := p.SignalStrength()
		if !ok || !p.LastSeen.After(h.seen[p.ID]) {
			continue
		}
		h.seen[p.ID] = p.LastSeen
		ring := h.rings[p.ID]
		if ring == nil {
			ring = NewRSSIRing(h.capacity)
			h.rings[p.ID] = ring
		}
		ring.Push(float64(rssi))
	}
}

// Values returns the history of id in chronological order.
func (h *SignalHistory) Values(id string) []float64 {
	if ring := h.rings[id]; ring != nil {
		return ring.Values()
	}
	return nil
}

// Reset forgets everything; used when a new scan clears the registry.
func (h *SignalHistory) Reset() {
	h.rings = make(map[string]*RSSIRing)
	h.seen = make(map[string]time.Time)
}
