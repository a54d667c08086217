package bluetooth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

var mockDeviceTemplates = []struct {
	Name        string
	Company     uint16
	Connectable bool
}{
	{"HMSoft", 0x000D, true},
	{"BT05", 0x000D, true},
	{"Rover-01", 0x0059, true},
	{"JDY-08", 0x000A, true},
	{"Galaxy S24 Ultra", 0x0075, false},
	{"Pixel 9 Pro", 0x00E0, false},
	{"AirPods Pro", 0x004C, false},
	{"Apple Watch", 0x004C, false},
	{"Fitbit Charge 6", 0x03DA, false},
	{"JBL Flip 6", 0x0131, false},
	{"Tile Tracker", 0x02FF, false},
	{"", 0x004C, false},
	{"", 0x0006, false},
}

type mockDevice struct {
	id          string
	name        string
	company     uint16
	baseRSSI    float64
	phase       float64
	amplitude   float64
	connectable bool
}

// mockCCCD and mockUserDesc are the descriptors the simulated bridge exposes.
const (
	mockCCCD     = "2902"
	mockUserDesc = "2901"
)

// MockDriver simulates a rover behind a serial bridge for --demo. It answers
// a radar sweep command with one notification carrying a full sample.
type MockDriver struct {
	events Emitter

	// Latency is applied to link operations.
	Latency time.Duration
	// EchoDelay is the time between a sweep command and its sample.
	EchoDelay time.Duration

	mu        sync.Mutex
	devices   []mockDevice
	scanning  bool
	links     map[string]bool
	notify    map[string]bool
	lastValue byte
	lastRead  []byte
	t         float64
}

// NewMockDriver creates a driver with a random mix of rover bridges,
// phones and unnamed beacons.
func NewMockDriver() *MockDriver {
	perm := rand.Perm(len(mockDeviceTemplates))
	devices := make([]mockDevice, 0, len(perm))
	for _, ti := range perm {
		tmpl := mockDeviceTemplates[ti]
		devices = append(devices, mockDevice{
			id:          randomMAC(),
			name:        tmpl.Name,
			company:     tmpl.Company,
			baseRSSI:    -40 - rand.Float64()*50, // -40 to -90 dBm
			phase:       rand.Float64() * 2 * math.Pi,
			amplitude:   3 + rand.Float64()*8, // 3-11 dBm fluctuation
			connectable: tmpl.Connectable,
		})
	}

	return &MockDriver{
		Latency:   300 * time.Millisecond,
		EchoDelay: 600 * time.Millisecond,
		devices:   devices,
		links:     make(map[string]bool),
		notify:    make(map[string]bool),
	}
}

// Enable is a no-op.
func (m *MockDriver) Enable() error { return nil }

// Scan emits advertisements every 200ms until opts.Duration elapses.
func (m *MockDriver) Scan(ctx context.Context, opts ScanOptions) error {
	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		return ErrScanInProgress
	}
	m.scanning = true
	m.mu.Unlock()

	go m.loop(ctx, opts)
	return nil
}

func (m *MockDriver) loop(ctx context.Context, opts ScanOptions) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(opts.Duration)
	defer deadline.Stop()

	reported := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			m.stopScan(ctx.Err())
			return
		case <-deadline.C:
			m.stopScan(nil)
			return
		case <-ticker.C:
			for _, adv := range m.advertise() {
				if !opts.AllowDuplicates {
					if reported[adv.ID] {
						continue
					}
					reported[adv.ID] = true
				}
				m.events.Emit(Event{Kind: EventDiscovered, Advertisement: adv})
			}
		}
	}
}

func (m *MockDriver) stopScan(err error) {
	m.mu.Lock()
	m.scanning = false
	m.mu.Unlock()
	m.events.Emit(Event{Kind: EventScanStopped, Err: err})
}

func (m *MockDriver) advertise() []Advertisement {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.t += 0.2
	var out []Advertisement
	for _, d := range m.devices {
		// Connected peripherals stop advertising.
		if m.links[d.id] {
			continue
		}
		// Not every device is heard on every tick.
		if rand.Float64() < 0.3 {
			continue
		}
		out = append(out, Advertisement{
			ID:           d.id,
			Name:         d.name,
			RSSI:         m.rssiOf(d),
			Manufacturer: LookupManufacturer(d.company),
		})
	}
	return out
}

// rssiOf returns a sinusoidal RSSI with noise (caller holds mu).
func (m *MockDriver) rssiOf(d mockDevice) int {
	rssi := d.baseRSSI + d.amplitude*math.Sin(m.t*0.5+d.phase) + (rand.Float64()-0.5)*4
	return int(rssi)
}

func (m *MockDriver) device(id string) (mockDevice, bool) {
	for _, d := range m.devices {
		if d.id == id {
			return d, true
		}
	}
	return mockDevice{}, false
}

func (m *MockDriver) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.Latency):
		return nil
	}
}

// Connect succeeds only for the simulated serial bridges.
func (m *MockDriver) Connect(ctx context.Context, id string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.device(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeripheral, id)
	}
	if !d.connectable {
		return fmt.Errorf("bluetooth: connect to %s: peripheral refused the connection", id)
	}
	m.links[id] = true
	return nil
}

// Disconnect drops the simulated link.
func (m *MockDriver) Disconnect(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.links[id] {
		return fmt.Errorf("%w: %s", ErrNotConnected, id)
	}
	delete(m.links, id)
	delete(m.notify, id)
	return nil
}

func (m *MockDriver) requireLink(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.links[id] {
		return fmt.Errorf("%w: %s", ErrNotConnected, id)
	}
	return nil
}

// DiscoverServices reports the serial bridge layout.
func (m *MockDriver) DiscoverServices(ctx context.Context, id string) (ServiceInfo, error) {
	if err := m.requireLink(id); err != nil {
		return ServiceInfo{}, err
	}
	if err := m.wait(ctx); err != nil {
		return ServiceInfo{}, err
	}
	return ServiceInfo{
		Services: []string{"1800", ControlServiceID},
		Characteristics: []Characteristic{
			{ServiceID: "1800", ID: "2a00"},
			{
				ServiceID: ControlServiceID,
				ID:        ControlCharacteristicID,
				Descriptors: []Descriptor{
					{ID: mockCCCD},
					{ID: mockUserDesc},
				},
			},
		},
	}, nil
}

// ReadSignalStrength returns the current simulated RSSI.
func (m *MockDriver) ReadSignalStrength(_ context.Context, id string) (int, error) {
	if err := m.requireLink(id); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _ := m.device(id)
	return m.rssiOf(d), nil
}

// ReadDescriptor answers the user description; the CCCD read fails the way
// many cheap bridges do.
func (m *MockDriver) ReadDescriptor(_ context.Context, id, _, _, descriptorID string) ([]byte, error) {
	if err := m.requireLink(id); err != nil {
		return nil, err
	}
	switch descriptorID {
	case mockUserDesc:
		return []byte("Rover UART"), nil
	default:
		return nil, fmt.Errorf("bluetooth: read descriptor %s: attribute not readable", descriptorID)
	}
}

// EnableNotifications arms sample delivery for id.
func (m *MockDriver) EnableNotifications(_ context.Context, id, serviceID, characteristicID string) error {
	if err := m.requireLink(id); err != nil {
		return err
	}
	if serviceID != ControlServiceID || characteristicID != ControlCharacteristicID {
		return fmt.Errorf("%w: %s/%s", ErrCharacteristicNotFound, serviceID, characteristicID)
	}
	m.mu.Lock()
	m.notify[id] = true
	m.mu.Unlock()
	return nil
}

// WriteWithoutResponse records the command. The sweep value 52 schedules a
// radar sample notification.
func (m *MockDriver) WriteWithoutResponse(_ context.Context, id, serviceID, characteristicID string, data []byte) error {
	if err := m.requireLink(id); err != nil {
		return err
	}
	if len(data) != 1 {
		return fmt.Errorf("bluetooth: write %s/%s: expected 1 byte, got %d", serviceID, characteristicID, len(data))
	}

	m.mu.Lock()
	m.lastValue = data[0]
	armed := m.notify[id]
	m.mu.Unlock()

	if data[0] == 52 && armed {
		time.AfterFunc(m.EchoDelay, func() {
			sample := randomRadarSample()
			m.mu.Lock()
			m.lastRead = sample
			m.mu.Unlock()
			m.events.Emit(Event{
				Kind:             EventNotification,
				PeripheralID:     id,
				ServiceID:        serviceID,
				CharacteristicID: characteristicID,
				Value:            sample,
			})
		})
	}
	return nil
}

// Read returns the last radar sample produced.
func (m *MockDriver) Read(_ context.Context, id, _, _ string) ([]byte, error) {
	if err := m.requireLink(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.lastRead))
	copy(out, m.lastRead)
	return out, nil
}

// ListConnected returns the linked identities.
func (m *MockDriver) ListConnected(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.links))
	for id := range m.links {
		ids = append(ids, id)
	}
	return ids, nil
}

// LastCommand returns the most recent byte written to the control channel.
func (m *MockDriver) LastCommand() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastValue
}

// DropLink simulates the rover going out of range.
func (m *MockDriver) DropLink(id string) {
	m.mu.Lock()
	ok := m.links[id]
	delete(m.links, id)
	delete(m.notify, id)
	m.mu.Unlock()
	if ok {
		m.events.Emit(Event{Kind: EventDisconnected, PeripheralID: id})
	}
}

// Subscribe registers an event handler.
func (m *MockDriver) Subscribe(handler func(Event)) func() {
	return m.events.Subscribe(handler)
}

func randomRadarSample() []byte {
	angles := []byte{30, 60, 90, 120, 150}
	out := make([]byte, 0, len(angles)*2)
	for _, a := range angles {
		out = append(out, a, byte(2+rand.Intn(44)))
	}
	return out
}

func randomMAC() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}

var _ Driver = (*MockDriver)(nil)
