// Package bluetoothtest provides a scripted bluetooth.Driver for tests.
package bluetoothtest

import (
	"context"
	"sync"

	"rover-radar.klederson.com/internal/bluetooth"
)

// Call records one driver invocation.
type Call struct {
	Method           string
	ID               string
	ServiceID        string
	CharacteristicID string
	DescriptorID     string
	Data             []byte
	Scan             bluetooth.ScanOptions
}

// Driver is a fake bluetooth.Driver. Every call is recorded; failures are
// injected per method name with Fail, per descriptor with FailDescriptor.
type Driver struct {
	bluetooth.Emitter

	mu              sync.Mutex
	calls           []Call
	errs            map[string]error
	descriptorErrs  map[string]error
	hooks           map[string]func(ctx context.Context, id string) error
	services        bluetooth.ServiceInfo
	rssi            int
	readValue       []byte
	connected       map[string]bool
	reportConnected []string
}

// New returns a fake with one control characteristic carrying two
// descriptors.
func New() *Driver {
	return &Driver{
		errs:           make(map[string]error),
		descriptorErrs: make(map[string]error),
		hooks:          make(map[string]func(context.Context, string) error),
		connected:      make(map[string]bool),
		rssi:           -61,
		services: bluetooth.ServiceInfo{
			Services: []string{bluetooth.ControlServiceID},
			Characteristics: []bluetooth.Characteristic{
				{
					ServiceID: bluetooth.ControlServiceID,
					ID:        bluetooth.ControlCharacteristicID,
					Descriptors: []bluetooth.Descriptor{
						{ID: "2901"},
						{ID: "2902"},
					},
				},
			},
		},
	}
}

// Fail makes method return err until cleared with Fail(method, nil).
func (d *Driver) Fail(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.errs, method)
		return
	}
	d.errs[method] = err
}

// FailDescriptor makes reads of one descriptor fail.
func (d *Driver) FailDescriptor(descriptorID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.descriptorErrs[descriptorID] = err
}

// Hook runs fn at the start of method, before the injected error check.
// Use it to block or interleave.
func (d *Driver) Hook(method string, fn func(ctx context.Context, id string) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks[method] = fn
}

// SetServices replaces the discovery result.
func (d *Driver) SetServices(info bluetooth.ServiceInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services = info
}

// SetRSSI sets the value returned by ReadSignalStrength.
func (d *Driver) SetRSSI(rssi int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rssi = rssi
}

// SetReadValue sets the value returned by Read.
func (d *Driver) SetReadValue(v []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readValue = v
}

// ReportConnected overrides ListConnected's answer.
func (d *Driver) ReportConnected(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reportConnected = ids
}

// Calls returns the recorded calls for method, or all calls if method is "".
func (d *Driver) Calls(method string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Call
	for _, c := range d.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times method was called.
func (d *Driver) Count(method string) int {
	return len(d.Calls(method))
}

// Methods returns the recorded method names in order.
func (d *Driver) Methods() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.Method
	}
	return out
}

func (d *Driver) record(ctx context.Context, c Call) error {
	d.mu.Lock()
	d.calls = append(d.calls, c)
	hook := d.hooks[c.Method]
	d.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, c.ID); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errs[c.Method]
}

func (d *Driver) Enable() error {
	return d.record(context.Background(), Call{Method: "Enable"})
}

func (d *Driver) Scan(ctx context.Context, opts bluetooth.ScanOptions) error {
	return d.record(ctx, Call{Method: "Scan", Scan: opts})
}

func (d *Driver) Connect(ctx context.Context, id string) error {
	if err := d.record(ctx, Call{Method: "Connect", ID: id}); err != nil {
		return err
	}
	d.mu.Lock()
	d.connected[id] = true
	d.mu.Unlock()
	return nil
}

func (d *Driver) Disconnect(ctx context.Context, id string) error {
	if err := d.record(ctx, Call{Method: "Disconnect", ID: id}); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.connected, id)
	d.mu.Unlock()
	return nil
}

func (d *Driver) DiscoverServices(ctx context.Context, id string) (bluetooth.ServiceInfo, error) {
	if err := d.record(ctx, Call{Method: "DiscoverServices", ID: id}); err != nil {
		return bluetooth.ServiceInfo{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.services, nil
}

func (d *Driver) ReadSignalStrength(ctx context.Context, id string) (int, error) {
	if err := d.record(ctx, Call{Method: "ReadSignalStrength", ID: id}); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rssi, nil
}

func (d *Driver) ReadDescriptor(ctx context.Context, id, serviceID, characteristicID, descriptorID string) ([]byte, error) {
	err := d.record(ctx, Call{
		Method:           "ReadDescriptor",
		ID:               id,
		ServiceID:        serviceID,
		CharacteristicID: characteristicID,
		DescriptorID:     descriptorID,
	})
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.descriptorErrs[descriptorID]; err != nil {
		return nil, err
	}
	return []byte(descriptorID), nil
}

func (d *Driver) EnableNotifications(ctx context.Context, id, serviceID, characteristicID string) error {
	return d.record(ctx, Call{
		Method:           "EnableNotifications",
		ID:               id,
		ServiceID:        serviceID,
		CharacteristicID: characteristicID,
	})
}

func (d *Driver) WriteWithoutResponse(ctx context.Context, id, serviceID, characteristicID string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	return d.record(ctx, Call{
		Method:           "WriteWithoutResponse",
		ID:               id,
		ServiceID:        serviceID,
		CharacteristicID: characteristicID,
		Data:             cp,
	})
}

func (d *Driver) Read(ctx context.Context, id, serviceID, characteristicID string) ([]byte, error) {
	err := d.record(ctx, Call{
		Method:           "Read",
		ID:               id,
		ServiceID:        serviceID,
		CharacteristicID: characteristicID,
	})
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readValue, nil
}

func (d *Driver) ListConnected(ctx context.Context) ([]string, error) {
	if err := d.record(ctx, Call{Method: "ListConnected"}); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reportConnected != nil {
		return d.reportConnected, nil
	}
	ids := make([]string, 0, len(d.connected))
	for id := range d.connected {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ bluetooth.Driver = (*Driver)(nil)
