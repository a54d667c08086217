package bluetooth

import (
	"sync"
	"time"
)

// Update is a partial change to a Peripheral. Zero-valued fields (empty
// strings, nil pointers) leave the stored value untouched.
type Update struct {
	Name         string
	RSSI         *int
	State        *ConnectionState
	Manufacturer string
}

// WithState returns an Update that only changes the connection state.
func WithState(s ConnectionState) Update {
	return Update{State: &s}
}

// WithRSSI returns an Update that only changes the signal strength.
func WithRSSI(rssi int) Update {
	return Update{RSSI: &rssi}
}

// Snapshot is an immutable view of the registry at one version.
type Snapshot struct {
	Version uint64
	Records []Peripheral
}

// Registry holds the peripherals discovered during the current scan
// session. Every mutation publishes a fresh slice and bumps Version, so a
// slice returned by Values never changes under the caller.
type Registry struct {
	mu      sync.RWMutex
	version uint64
	index   map[string]int
	records []Peripheral
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Reset drops every record.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = make(map[string]int)
	r.records = nil
	r.version++
}

// Upsert inserts a new record or merges u into the existing one, field by
// field. It returns the stored result.
func (r *Registry) Upsert(id string, u Update) Peripheral {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]Peripheral, len(r.records), len(r.records)+1)
	copy(next, r.records)

	var rec Peripheral
	i, ok := r.index[id]
	if ok {
		rec = merge(next[i], u)
		next[i] = rec
	} else {
		rec = merge(Peripheral{ID: id}, u)
		r.index[id] = len(next)
		next = append(next, rec)
	}

	r.records = next
	r.version++
	return rec
}

func merge(p Peripheral, u Update) Peripheral {
	if u.Name != "" {
		p.Name = u.Name
	}
	if u.RSSI != nil {
		rssi := *u.RSSI
		p.RSSI = &rssi
	}
	if u.State != nil {
		p.State = *u.State
	}
	if u.Manufacturer != "" {
		p.Manufacturer = u.Manufacturer
	}
	p.LastSeen = time.Now()
	return p
}

// Values returns the records in insertion order. The slice belongs to the
// current snapshot and must not be modified.
func (r *Registry) Values() []Peripheral {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[:len(r.records):len(r.records)]
}

// Snapshot returns the records together with the version they belong to.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Version: r.version,
		Records: r.records[:len(r.records):len(r.records)],
	}
}

// Version returns a counter that changes on every mutation.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Get looks up a record by identity.
func (r *Registry) Get(id string) (Peripheral, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return Peripheral{}, false
	}
	return r.records[i], true
}

// Count returns the total number of tracked peripherals.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// CountByState returns counts broken down by connection state.
func (r *Registry) CountByState() (discovered, connecting, connected int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.records {
		switch p.State {
		case StateConnecting:
			connecting++
		case StateConnected:
			connected++
		default:
			discovered++
		}
	}
	return
}
