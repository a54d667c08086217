package bluetooth

import (
	"context"
	"errors"
	"time"
)

// Control channel of the rover's serial bridge.
const (
	ControlServiceID        = "ffe0"
	ControlCharacteristicID = "ffe1"
)

var (
	ErrScanInProgress         = errors.New("bluetooth: scan already in progress")
	ErrUnknownPeripheral      = errors.New("bluetooth: unknown peripheral")
	ErrNotConnected           = errors.New("bluetooth: peripheral not connected")
	ErrCharacteristicNotFound = errors.New("bluetooth: characteristic not found")
	ErrUnsupported            = errors.New("bluetooth: operation not supported by this driver")
)

// ScanMode trades power for discovery latency.
type ScanMode int

const (
	ScanModeLowPower ScanMode = iota
	ScanModeBalanced
	ScanModeLowLatency
)

// MatchMode controls how aggressively advertisements are matched.
type MatchMode int

const (
	MatchModeAggressive MatchMode = iota
	MatchModeSticky
)

// CallbackType selects which matches are reported.
type CallbackType int

const (
	CallbackAllMatches CallbackType = iota
	CallbackFirstMatch
	CallbackMatchLost
)

// ScanConfig carries radio tuning hints. Drivers that cannot honour a hint
// ignore it.
type ScanConfig struct {
	Mode     ScanMode
	Match    MatchMode
	Callback CallbackType
}

// ScanOptions describes one bounded discovery window.
type ScanOptions struct {
	ServiceFilter   []string
	Duration        time.Duration
	AllowDuplicates bool
	Config          ScanConfig
}

// Descriptor is a GATT descriptor reference.
type Descriptor struct {
	ID string
}

// Characteristic is a GATT characteristic reference.
type Characteristic struct {
	ServiceID   string
	ID          string
	Descriptors []Descriptor
}

// ServiceInfo is the result of service discovery on a link.
type ServiceInfo struct {
	Services        []string
	Characteristics []Characteristic
}

// Advertisement is one discovery report.
type Advertisement struct {
	ID           string
	Name         string
	RSSI         int
	Manufacturer string
}

// EventKind identifies a driver event.
type EventKind int

const (
	EventDiscovered EventKind = iota
	EventScanStopped
	EventNotification
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventDiscovered:
		return "discovered"
	case EventScanStopped:
		return "scan-stopped"
	case EventNotification:
		return "notification"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers. Which fields are set depends on Kind.
type Event struct {
	Kind             EventKind
	Advertisement    Advertisement // EventDiscovered
	PeripheralID     string        // EventNotification, EventDisconnected
	ServiceID        string        // EventNotification
	CharacteristicID string        // EventNotification
	Value            []byte        // EventNotification
	Err              error         // EventScanStopped when the scan ended abnormally
}

// Driver is the radio stack as seen by the session and command layers.
// Blocking calls honour ctx; Scan returns as soon as the window is open and
// reports its end through an EventScanStopped.
type Driver interface {
	Enable() error
	Scan(ctx context.Context, opts ScanOptions) error
	Connect(ctx context.Context, id string) error
	Disconnect(ctx context.Context, id string) error
	DiscoverServices(ctx context.Context, id string) (ServiceInfo, error)
	ReadSignalStrength(ctx context.Context, id string) (int, error)
	ReadDescriptor(ctx context.Context, id, serviceID, characteristicID, descriptorID string) ([]byte, error)
	EnableNotifications(ctx context.Context, id, serviceID, characteristicID string) error
	WriteWithoutResponse(ctx context.Context, id, serviceID, characteristicID string, data []byte) error
	Read(ctx context.Context, id, serviceID, characteristicID string) ([]byte, error)
	ListConnected(ctx context.Context) ([]string, error)
	// Subscribe registers handler for all events. The returned function
	// removes it and is safe to call more than once.
	Subscribe(handler func(Event)) (unsubscribe func())
}
