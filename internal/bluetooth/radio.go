package bluetooth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

const baseUUIDSuffix = "-0000-1000-8000-00805f9b34fb"

// Radio drives a real adapter through tinygo.org/x/bluetooth.
//
// The tinygo stack exposes neither an RSSI read on a live link nor
// descriptor access, so ReadSignalStrength answers from the last
// advertisement seen and characteristics are reported without descriptors.
type Radio struct {
	adapter *bluetooth.Adapter
	events  Emitter

	mu       sync.Mutex
	scanning bool
	seen     map[string]bluetooth.Address
	rssi     map[string]int
	links    map[string]*radioLink
}

// radioLink holds the characteristics of one open link. tinygo keeps
// notification state inside each DeviceCharacteristic, so the link keeps
// pointers and never hands out copies. Guarded by Radio.mu.
type radioLink struct {
	device    bluetooth.Device
	chars     map[string]*bluetooth.DeviceCharacteristic // keyed by service/characteristic
	notifying map[string]bool
}

func newRadioLink(device bluetooth.Device) *radioLink {
	return &radioLink{
		device:    device,
		chars:     make(map[string]*bluetooth.DeviceCharacteristic),
		notifying: make(map[string]bool),
	}
}

// adopt records freshly discovered characteristics. Known keys keep their
// existing pointer so an armed subscription is not lost on rediscovery.
func (l *radioLink) adopt(found map[string]*bluetooth.DeviceCharacteristic) {
	for k, c := range found {
		if _, ok := l.chars[k]; ok {
			continue
		}
		l.chars[k] = c
	}
}

// arm marks key as notifying and reports whether it was idle before.
func (l *radioLink) arm(key string) bool {
	if l.notifying[key] {
		return false
	}
	l.notifying[key] = true
	return true
}

func (l *radioLink) disarm(key string) {
	delete(l.notifying, key)
}

// disarmAll clears every subscription and returns the characteristics
// that still need to be told to stop.
func (l *radioLink) disarmAll() []*bluetooth.DeviceCharacteristic {
	out := make([]*bluetooth.DeviceCharacteristic, 0, len(l.notifying))
	for k := range l.notifying {
		if c, ok := l.chars[k]; ok {
			out = append(out, c)
		}
	}
	clear(l.notifying)
	return out
}

// stopNotifications releases the watchers tinygo installed for chars.
// Errors are ignored: the link is going away either way.
func stopNotifications(chars []*bluetooth.DeviceCharacteristic) {
	for _, c := range chars {
		_ = c.EnableNotifications(nil)
	}
}

// NewRadio creates a driver bound to the default adapter.
func NewRadio() *Radio {
	return &Radio{
		adapter: bluetooth.DefaultAdapter,
		seen:    make(map[string]bluetooth.Address),
		rssi:    make(map[string]int),
		links:   make(map[string]*radioLink),
	}
}

// Enable powers the adapter and installs the link-loss handler.
func (r *Radio) Enable() error {
	if err := r.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}

	r.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		r.mu.Lock()
		link, ok := r.links[id]
		delete(r.links, id)
		var armed []*bluetooth.DeviceCharacteristic
		if ok {
			armed = link.disarmAll()
		}
		r.mu.Unlock()
		if ok {
			stopNotifications(armed)
			r.events.Emit(Event{Kind: EventDisconnected, PeripheralID: id})
		}
	})
	return nil
}

// Scan opens a discovery window of opts.Duration. Results and the final
// stop arrive as events.
func (r *Radio) Scan(ctx context.Context, opts ScanOptions) error {
	filter := make([]bluetooth.UUID, 0, len(opts.ServiceFilter))
	for _, id := range opts.ServiceFilter {
		u, err := parseUUID(id)
		if err != nil {
			return fmt.Errorf("bluetooth: parse service filter %q: %w", id, err)
		}
		filter = append(filter, u)
	}

	r.mu.Lock()
	if r.scanning {
		r.mu.Unlock()
		return ErrScanInProgress
	}
	r.scanning = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		timer := time.NewTimer(opts.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-done:
			return
		}
		_ = r.adapter.StopScan()
	}()

	go func() {
		reported := make(map[string]bool)
		err := r.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !matchesFilter(result, filter) {
				return
			}
			id := result.Address.String()
			if !opts.AllowDuplicates {
				if reported[id] {
					return
				}
				reported[id] = true
			}

			adv := Advertisement{
				ID:   id,
				Name: result.LocalName(),
				RSSI: int(result.RSSI),
			}
			if mfrs := result.ManufacturerData(); len(mfrs) > 0 {
				adv.Manufacturer = ManufacturerLabel(mfrs[0].CompanyID)
			}

			r.mu.Lock()
			r.seen[id] = result.Address
			r.rssi[id] = adv.RSSI
			r.mu.Unlock()

			r.events.Emit(Event{Kind: EventDiscovered, Advertisement: adv})
		})
		close(done)

		r.mu.Lock()
		r.scanning = false
		r.mu.Unlock()

		if err != nil {
			err = fmt.Errorf("bluetooth: scan: %w", err)
		}
		r.events.Emit(Event{Kind: EventScanStopped, Err: err})
	}()

	return nil
}

func matchesFilter(result bluetooth.ScanResult, filter []bluetooth.UUID) bool {
	if len(filter) == 0 {
		return true
	}
	for _, u := range filter {
		if result.HasServiceUUID(u) {
			return true
		}
	}
	return false
}

// Connect opens a link to a previously seen peripheral.
func (r *Radio) Connect(ctx context.Context, id string) error {
	r.mu.Lock()
	addr, ok := r.seen[id]
	r.mu.Unlock()
	if !ok {
		addr.Set(id)
	}

	// tinygo's Connect blocks with its own timeout; ctx only bounds our wait.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := r.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("bluetooth: connect to %s: %w", id, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("bluetooth: connect to %s: %w", id, res.err)
		}
		r.mu.Lock()
		r.links[id] = newRadioLink(res.device)
		r.mu.Unlock()
		return nil
	}
}

// Disconnect closes the link to id.
func (r *Radio) Disconnect(_ context.Context, id string) error {
	r.mu.Lock()
	link, ok := r.links[id]
	delete(r.links, id)
	var armed []*bluetooth.DeviceCharacteristic
	if ok {
		armed = link.disarmAll()
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, id)
	}
	stopNotifications(armed)
	if err := link.device.Disconnect(); err != nil {
		return fmt.Errorf("bluetooth: disconnect %s: %w", id, err)
	}
	return nil
}

func (r *Radio) link(id string) (*radioLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, id)
	}
	return link, nil
}

// DiscoverServices walks every service and characteristic on the link.
func (r *Radio) DiscoverServices(_ context.Context, id string) (ServiceInfo, error) {
	link, err := r.link(id)
	if err != nil {
		return ServiceInfo{}, err
	}

	svcs, err := link.device.DiscoverServices(nil)
	if err != nil {
		return ServiceInfo{}, fmt.Errorf("bluetooth: discover services: %w", err)
	}

	var info ServiceInfo
	found := make(map[string]*bluetooth.DeviceCharacteristic)
	for _, svc := range svcs {
		svcID := uuidID(svc.UUID())
		info.Services = append(info.Services, svcID)

		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return ServiceInfo{}, fmt.Errorf("bluetooth: discover characteristics of %s: %w", svcID, err)
		}
		for i := range chars {
			c := &chars[i]
			charID := uuidID(c.UUID())
			found[charKey(svcID, charID)] = c
			info.Characteristics = append(info.Characteristics, Characteristic{
				ServiceID: svcID,
				ID:        charID,
			})
		}
	}

	r.mu.Lock()
	link.adopt(found)
	r.mu.Unlock()

	return info, nil
}

// ReadSignalStrength returns the RSSI of the last advertisement from id.
func (r *Radio) ReadSignalStrength(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rssi, ok := r.rssi[id]
	if !ok {
		return 0, fmt.Errorf("%w: no signal reading for %s", ErrUnknownPeripheral, id)
	}
	return rssi, nil
}

// ReadDescriptor is not available through tinygo.
func (r *Radio) ReadDescriptor(_ context.Context, _, _, _, descriptorID string) ([]byte, error) {
	return nil, fmt.Errorf("%w: read descriptor %s", ErrUnsupported, descriptorID)
}

func (r *Radio) characteristic(ctx context.Context, id, serviceID, characteristicID string) (*radioLink, string, *bluetooth.DeviceCharacteristic, error) {
	link, err := r.link(id)
	if err != nil {
		return nil, "", nil, err
	}

	key := charKey(normalizeID(serviceID), normalizeID(characteristicID))
	r.mu.Lock()
	c, ok := link.chars[key]
	r.mu.Unlock()
	if ok {
		return link, key, c, nil
	}

	if _, err := r.DiscoverServices(ctx, id); err != nil {
		return nil, "", nil, err
	}
	r.mu.Lock()
	c, ok = link.chars[key]
	r.mu.Unlock()
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: %s/%s", ErrCharacteristicNotFound, serviceID, characteristicID)
	}
	return link, key, c, nil
}

// EnableNotifications forwards characteristic updates as events. A
// characteristic that is already notifying is left alone.
func (r *Radio) EnableNotifications(ctx context.Context, id, serviceID, characteristicID string) error {
	link, key, c, err := r.characteristic(ctx, id, serviceID, characteristicID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	fresh := link.arm(key)
	r.mu.Unlock()
	if !fresh {
		return nil
	}

	err = c.EnableNotifications(func(buf []byte) {
		value := make([]byte, len(buf))
		copy(value, buf)
		r.events.Emit(Event{
			Kind:             EventNotification,
			PeripheralID:     id,
			ServiceID:        serviceID,
			CharacteristicID: characteristicID,
			Value:            value,
		})
	})
	if err != nil {
		r.mu.Lock()
		link.disarm(key)
		r.mu.Unlock()
		return fmt.Errorf("bluetooth: enable notifications %s/%s: %w", serviceID, characteristicID, err)
	}
	return nil
}

// WriteWithoutResponse writes data without waiting for an acknowledgement.
func (r *Radio) WriteWithoutResponse(ctx context.Context, id, serviceID, characteristicID string, data []byte) error {
	_, _, c, err := r.characteristic(ctx, id, serviceID, characteristicID)
	if err != nil {
		return err
	}
	if _, err := c.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("bluetooth: write %s/%s: %w", serviceID, characteristicID, err)
	}
	return nil
}

// Read reads the current characteristic value.
func (r *Radio) Read(ctx context.Context, id, serviceID, characteristicID string) ([]byte, error) {
	_, _, c, err := r.characteristic(ctx, id, serviceID, characteristicID)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 64)
	n, err := c.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("bluetooth: read %s/%s: %w", serviceID, characteristicID, err)
	}
	return buf[:n], nil
}

// ListConnected returns the identities with an open link.
func (r *Radio) ListConnected(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.links))
	for id := range r.links {
		ids = append(ids, id)
	}
	return ids, nil
}

// Subscribe registers an event handler.
func (r *Radio) Subscribe(handler func(Event)) func() {
	return r.events.Subscribe(handler)
}

func charKey(serviceID, characteristicID string) string {
	return serviceID + "/" + characteristicID
}

// uuidID shortens Bluetooth base UUIDs to their 16-bit form ("ffe1").
func uuidID(u bluetooth.UUID) string {
	return normalizeID(u.String())
}

func normalizeID(id string) string {
	s := strings.ToLower(id)
	if len(s) == 36 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, baseUUIDSuffix) {
		return s[4:8]
	}
	return s
}

func parseUUID(id string) (bluetooth.UUID, error) {
	if len(id) == 4 {
		v, err := strconv.ParseUint(id, 16, 16)
		if err != nil {
			return bluetooth.UUID{}, err
		}
		return bluetooth.New16BitUUID(uint16(v)), nil
	}
	return bluetooth.ParseUUID(id)
}

var _ Driver = (*Radio)(nil)
