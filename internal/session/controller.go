// Package session owns the scan/connect lifecycle for the single rover link.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/config"
	"rover-radar.klederson.com/internal/logging"
)

var (
	ErrAlreadyConnected  = errors.New("session: a peripheral is already connecting or connected")
	ErrUnknownPeripheral = errors.New("session: peripheral not discovered in this scan")
	ErrNotConnected      = errors.New("session: no active connection")
	ErrSuperseded        = errors.New("session: handshake superseded")
)

// Gate resolves OS permissions before a scan. A denial is reported but
// does not stop the scan.
type Gate interface {
	Resolve(ctx context.Context) error
}

// State is a copy of the session flags.
type State struct {
	ActiveID  string
	Scanning  bool
	Connected bool
}

// Options tunes the controller. Zero values fall back to config defaults.
type Options struct {
	ScanDuration    time.Duration
	SettleDelay     time.Duration
	AllowDuplicates bool
	Gate            Gate
	Logger          *zap.Logger
}

// Controller drives scanning and the connect handshake and keeps at most
// one peripheral claimed at a time. Driver calls are made without the lock
// held, so event handlers may run while a handshake is waiting.
type Controller struct {
	driver   bluetooth.Driver
	registry *bluetooth.Registry
	gate     Gate
	log      *zap.Logger

	scanDuration    time.Duration
	settleDelay     time.Duration
	allowDuplicates bool

	// linkMu is held from a teardown decision until its driver Disconnect
	// returns; a handshake passes it before connecting, so a stale teardown
	// never lands on a newer link. Lock order: linkMu, then mu.
	linkMu sync.Mutex

	mu        sync.Mutex
	scanning  bool
	connected bool
	activeID  string // claimed by a running or finished handshake
	epoch     uint64 // bumped whenever the claim is dropped from outside
}

// NewController wires a controller to a driver and the registry it fills.
func NewController(driver bluetooth.Driver, registry *bluetooth.Registry, opts Options) *Controller {
	if opts.ScanDuration <= 0 {
		opts.ScanDuration = config.ScanDuration
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = config.SettleDelay
	}
	return &Controller{
		driver:          driver,
		registry:        registry,
		gate:            opts.Gate,
		log:             logging.Component(opts.Logger, "session"),
		scanDuration:    opts.ScanDuration,
		settleDelay:     opts.SettleDelay,
		allowDuplicates: opts.AllowDuplicates,
	}
}

// Registry returns the registry the controller fills.
func (c *Controller) Registry() *bluetooth.Registry { return c.registry }

// State returns the current session flags.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{ActiveID: c.activeID, Scanning: c.scanning, Connected: c.connected}
}

// Active returns the connected peripheral, if the handshake has reached it.
func (c *Controller) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return "", false
	}
	return c.activeID, true
}

// StartScan begins a new discovery window. It returns false without
// touching the driver if a scan is already running.
func (c *Controller) StartScan(ctx context.Context) bool {
	c.linkMu.Lock()
	c.mu.Lock()
	if c.scanning {
		c.mu.Unlock()
		c.linkMu.Unlock()
		return false
	}
	previous := c.activeID
	c.registry.Reset()
	c.connected = false
	c.activeID = ""
	c.epoch++
	c.scanning = true
	c.mu.Unlock()

	if previous != "" {
		if err := c.driver.Disconnect(ctx, previous); err != nil {
			c.log.Warn("dropping previous link failed", zap.String("peripheral", previous), zap.Error(err))
		}
	}
	c.linkMu.Unlock()

	if c.gate != nil {
		if err := c.gate.Resolve(ctx); err != nil {
			c.log.Warn("permissions not granted, scanning anyway", zap.Error(err))
		}
	}

	opts := bluetooth.ScanOptions{
		Duration:        c.scanDuration,
		AllowDuplicates: c.allowDuplicates,
		Config: bluetooth.ScanConfig{
			Mode:     bluetooth.ScanModeLowLatency,
			Match:    bluetooth.MatchModeSticky,
			Callback: bluetooth.CallbackAllMatches,
		},
	}
	if err := c.driver.Scan(ctx, opts); err != nil {
		// No stop event follows a scan that never started.
		c.log.Error("scan failed to start", zap.Error(err))
		c.mu.Lock()
		c.scanning = false
		c.mu.Unlock()
		return true
	}

	c.log.Info("scan started", zap.Duration("duration", c.scanDuration))
	return true
}

// HandleEvent routes a driver event. Notifications are not session
// business and are ignored here.
func (c *Controller) HandleEvent(ev bluetooth.Event) {
	switch ev.Kind {
	case bluetooth.EventDiscovered:
		c.OnDiscovered(ev.Advertisement)
	case bluetooth.EventScanStopped:
		c.OnScanStopped(ev.Err)
	case bluetooth.EventDisconnected:
		c.OnDisconnected(ev.PeripheralID)
	}
}

// OnDiscovered records a named advertisement. Unnamed ones are noise.
func (c *Controller) OnDiscovered(adv bluetooth.Advertisement) {
	if adv.Name == "" {
		return
	}
	u := bluetooth.Update{Name: adv.Name, Manufacturer: adv.Manufacturer}
	if adv.RSSI != 0 {
		rssi := adv.RSSI
		u.RSSI = &rssi
	}
	c.registry.Upsert(adv.ID, u)
}

// OnScanStopped clears the scanning flag.
func (c *Controller) OnScanStopped(err error) {
	c.mu.Lock()
	c.scanning = false
	c.mu.Unlock()
	if err != nil {
		c.log.Warn("scan stopped with error", zap.Error(err))
		return
	}
	c.log.Info("scan stopped", zap.Int("peripherals", c.registry.Count()))
}

// OnDisconnected handles a link drop reported by the driver.
func (c *Controller) OnDisconnected(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" || id != c.activeID {
		return
	}
	c.release(id)
	c.log.Warn("link lost", zap.String("peripheral", id))
}

// Connect claims id and runs the handshake to completion. It fails fast
// with ErrAlreadyConnected if any peripheral is already claimed.
func (c *Controller) Connect(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.activeID != "" {
		active := c.activeID
		c.mu.Unlock()
		c.log.Info("connect rejected", zap.String("peripheral", id), zap.String("active", active))
		return ErrAlreadyConnected
	}
	if _, ok := c.registry.Get(id); !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownPeripheral, id)
	}
	c.activeID = id
	h := &handshake{c: c, id: id, epoch: c.epoch}
	c.mu.Unlock()

	c.log.Info("connecting", zap.String("peripheral", id))
	return h.run(ctx)
}

// Disconnect tears down the active link.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.linkMu.Lock()
	defer c.linkMu.Unlock()

	c.mu.Lock()
	id := c.activeID
	if id == "" {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.release(id)
	c.mu.Unlock()

	if err := c.driver.Disconnect(ctx, id); err != nil {
		c.log.Warn("disconnect failed", zap.String("peripheral", id), zap.Error(err))
		return fmt.Errorf("disconnect %s: %w", id, err)
	}
	c.log.Info("disconnected", zap.String("peripheral", id))
	return nil
}

// release drops the claim on id (caller holds mu).
func (c *Controller) release(id string) {
	if _, ok := c.registry.Get(id); ok {
		c.registry.Upsert(id, bluetooth.WithState(bluetooth.StateDiscovered))
	}
	c.connected = false
	c.activeID = ""
	c.epoch++
}
