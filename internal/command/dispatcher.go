package command

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/config"
	"rover-radar.klederson.com/internal/logging"
)

// NotConnectedMessage is shown when a command is issued without a link.
const NotConnectedMessage = "Please scan and connect a BLE device first"

var ErrNotConnected = errors.New("command: no connected peripheral")

// Session is the part of the session controller the dispatcher needs.
type Session interface {
	Active() (string, bool)
	StartScan(ctx context.Context) bool
}

// Prompt is a confirmation offered to the operator. OnAccept reports
// whether the accepted action actually started.
type Prompt struct {
	Message  string
	Accept   string
	OnAccept func(ctx context.Context) bool
}

// Prompter shows prompts to the operator.
type Prompter interface {
	Prompt(p Prompt)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(Prompt)

func (f PrompterFunc) Prompt(p Prompt) { f(p) }

// Dispatcher writes intents to the connected rover.
type Dispatcher struct {
	session  Session
	driver   bluetooth.Driver
	prompter Prompter
	log      *zap.Logger

	mu    sync.Mutex
	speed int

	// seq serialises driver sequences so commands reach the rover one at
	// a time and in the order they were issued.
	seq sync.Mutex
}

// NewDispatcher returns a dispatcher at the given speed. prompter may be nil.
func NewDispatcher(session Session, driver bluetooth.Driver, prompter Prompter, speed int, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		session:  session,
		driver:   driver,
		prompter: prompter,
		log:      logging.Component(log, "command"),
		speed:    ClampSpeed(speed),
	}
}

// Speed returns the current slider value.
func (d *Dispatcher) Speed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// SetSpeed sets the slider value, clamped to the valid range.
func (d *Dispatcher) SetSpeed(speed int) {
	d.mu.Lock()
	d.speed = ClampSpeed(speed)
	d.mu.Unlock()
}

// Adjust moves the slider by steps notches and returns the new value.
func (d *Dispatcher) Adjust(steps int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = ClampSpeed(d.speed + steps*config.SpeedStep)
	return d.speed
}

// Dispatch sends intent to the connected rover. It reports true only when
// a radar sweep was written, which is the cue to enter radar mode. Every
// failure is logged; with no link the operator is offered a scan instead.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) bool {
	d.seq.Lock()
	defer d.seq.Unlock()

	id, ok, err := d.connected(ctx)
	if err != nil {
		d.log.Error("listing connected peripherals failed", zap.Error(err))
		return false
	}
	if !ok {
		d.offerScan()
		return false
	}

	value := Encode(intent, d.Speed())
	log := d.log.With(
		zap.String("peripheral", id),
		zap.Stringer("intent", intent),
		zap.Uint8("value", value),
	)

	if _, err := d.driver.DiscoverServices(ctx, id); err != nil {
		log.Error("service discovery failed", zap.Error(err))
		return false
	}
	if err := d.driver.EnableNotifications(ctx, id, bluetooth.ControlServiceID, bluetooth.ControlCharacteristicID); err != nil {
		log.Error("enabling notifications failed", zap.Error(err))
		return false
	}
	if err := d.driver.WriteWithoutResponse(ctx, id, bluetooth.ControlServiceID, bluetooth.ControlCharacteristicID, []byte{value}); err != nil {
		log.Error("write failed", zap.Error(err))
		return false
	}

	log.Debug("command sent")
	return intent.Kind == KindRadarSweep
}

// Poll reads the control characteristic of the connected rover.
func (d *Dispatcher) Poll(ctx context.Context) ([]byte, error) {
	d.seq.Lock()
	defer d.seq.Unlock()

	id, ok, err := d.connected(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConnected
	}
	data, err := d.driver.Read(ctx, id, bluetooth.ControlServiceID, bluetooth.ControlCharacteristicID)
	if err != nil {
		d.log.Warn("control read failed", zap.String("peripheral", id), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// connected requires both the session and the driver to agree on the link.
func (d *Dispatcher) connected(ctx context.Context) (string, bool, error) {
	id, ok := d.session.Active()
	if !ok {
		return "", false, nil
	}
	ids, err := d.driver.ListConnected(ctx)
	if err != nil {
		return "", false, err
	}
	return id, slices.Contains(ids, id), nil
}

func (d *Dispatcher) offerScan() {
	d.log.Info("command dropped, no connected peripheral")
	if d.prompter == nil {
		return
	}
	d.prompter.Prompt(Prompt{
		Message: NotConnectedMessage,
		Accept:  "Scan",
		OnAccept: func(ctx context.Context) bool {
			return d.session.StartScan(ctx)
		},
	})
}
