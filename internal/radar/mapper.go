package radar

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/config"
	"rover-radar.klederson.com/internal/logging"
)

// Angles are the servo positions the rover reports, in degrees.
var Angles = [...]int{30, 60, 90, 120, 150}

// Bucket is the distance band of one angle.
type Bucket int

const (
	Near Bucket = iota
	Mid
	Far
	OutOfRange
)

func (b Bucket) String() string {
	switch b {
	case Near:
		return "near"
	case Mid:
		return "mid"
	case Far:
		return "far"
	default:
		return "out-of-range"
	}
}

// Ring returns the 1-based radar ring the bucket is drawn on, 0 when the
// marker is suppressed.
func (b Bucket) Ring() int {
	switch b {
	case Near:
		return 1
	case Mid:
		return 2
	case Far:
		return 3
	default:
		return 0
	}
}

// Classification is the derived state of one angle.
type Classification struct {
	Angle    int
	Bucket   Bucket
	Distance int // raw reading, -1 when the angle is missing
}

// Lookup finds the first occurrence of angle in sample and returns the
// value right after it.
func Lookup(sample []int, angle int) (int, bool) {
	for i, v := range sample {
		if v != angle {
			continue
		}
		if i+1 >= len(sample) {
			return 0, false
		}
		return sample[i+1], true
	}
	return 0, false
}

// BucketFor maps a raw distance onto its band.
func BucketFor(distance int) Bucket {
	switch {
	case distance <= config.NearMax:
		return Near
	case distance <= config.MidMax:
		return Mid
	case distance <= config.FarMax:
		return Far
	default:
		return OutOfRange
	}
}

// Classify buckets the reading for angle. A missing angle, or one with no
// value after it, is OutOfRange.
func Classify(sample []int, angle int) Bucket {
	d, ok := Lookup(sample, angle)
	if !ok {
		return OutOfRange
	}
	return BucketFor(d)
}

// ClassifyAll classifies every fixed angle of sample.
func ClassifyAll(sample []int) []Classification {
	out := make([]Classification, len(Angles))
	for i, a := range Angles {
		c := Classification{Angle: a, Bucket: OutOfRange, Distance: -1}
		if d, ok := Lookup(sample, a); ok {
			c.Distance = d
			c.Bucket = BucketFor(d)
		}
		out[i] = c
	}
	return out
}

// Mapper keeps the latest radar sample. Each notification replaces the
// previous one.
type Mapper struct {
	log *zap.Logger

	mu      sync.RWMutex
	sample  []int
	version uint64
	updated time.Time
}

// NewMapper returns an empty mapper.
func NewMapper(log *zap.Logger) *Mapper {
	return &Mapper{log: logging.Component(log, "radar")}
}

// HandleEvent feeds notifications from the control characteristic into
// the mapper and ignores everything else.
func (m *Mapper) HandleEvent(ev bluetooth.Event) {
	if ev.Kind != bluetooth.EventNotification {
		return
	}
	if ev.CharacteristicID != "" && ev.CharacteristicID != bluetooth.ControlCharacteristicID {
		return
	}
	m.OnNotification(ev.Value)
}

// OnNotification stores raw as the current sample.
func (m *Mapper) OnNotification(raw []byte) {
	sample := make([]int, len(raw))
	for i, b := range raw {
		sample[i] = int(b)
	}

	m.mu.Lock()
	m.sample = sample
	m.version++
	m.updated = time.Now()
	m.mu.Unlock()

	m.log.Debug("radar sample", zap.Ints("values", sample))
}

// Sample returns a copy of the current sample.
func (m *Mapper) Sample() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.sample))
	copy(out, m.sample)
	return out
}

// Version changes whenever a new sample arrives.
func (m *Mapper) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Updated returns when the current sample arrived.
func (m *Mapper) Updated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated
}

// Classifications recomputes all angles from the current sample.
func (m *Mapper) Classifications() []Classification {
	m.mu.RLock()
	sample := m.sample
	m.mu.RUnlock()
	return ClassifyAll(sample)
}
