package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/bluetooth"
)

// Step identifies one stage of the connect handshake.
type Step int

const (
	StepMarkConnecting Step = iota
	StepConnect
	StepMarkConnected
	StepSettle
	StepDiscoverServices
	StepReadSignal
	StepReadDescriptors
	StepMergeSignal
)

func (s Step) String() string {
	switch s {
	case StepMarkConnecting:
		return "mark-connecting"
	case StepConnect:
		return "connect"
	case StepMarkConnected:
		return "mark-connected"
	case StepSettle:
		return "settle"
	case StepDiscoverServices:
		return "discover-services"
	case StepReadSignal:
		return "read-signal"
	case StepReadDescriptors:
		return "read-descriptors"
	case StepMergeSignal:
		return "merge-signal"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Policy decides what a step failure does to the handshake.
type Policy int

const (
	// Abort stops the handshake and rolls the session back.
	Abort Policy = iota
	// Continue logs the failure and moves on.
	Continue
)

// HandshakeError reports the step that aborted a handshake.
type HandshakeError struct {
	Step Step
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake %s: %v", e.Step, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

type step struct {
	id     Step
	policy Policy
	run    func(h *handshake, ctx context.Context) error
}

// steps is the handshake in execution order.
var steps = []step{
	{StepMarkConnecting, Abort, (*handshake).markConnecting},
	{StepConnect, Abort, (*handshake).connect},
	{StepMarkConnected, Abort, (*handshake).markConnected},
	{StepSettle, Abort, (*handshake).settle},
	{StepDiscoverServices, Abort, (*handshake).discoverServices},
	{StepReadSignal, Abort, (*handshake).readSignal},
	{StepReadDescriptors, Continue, (*handshake).readDescriptors},
	{StepMergeSignal, Abort, (*handshake).mergeSignal},
}

// handshake carries the state of one Connect call between steps.
type handshake struct {
	c     *Controller
	id    string
	epoch uint64

	linked   bool
	services bluetooth.ServiceInfo
	rssi     int
}

func (h *handshake) run(ctx context.Context) error {
	for _, s := range steps {
		err := s.run(h, ctx)
		if err == nil {
			continue
		}
		if s.policy == Continue {
			h.c.log.Warn("handshake step failed, continuing",
				zap.String("peripheral", h.id),
				zap.Stringer("step", s.id),
				zap.Error(err),
			)
			continue
		}
		h.c.log.Error("handshake aborted",
			zap.String("peripheral", h.id),
			zap.Stringer("step", s.id),
			zap.Error(err),
		)
		h.rollback()
		return &HandshakeError{Step: s.id, Err: err}
	}
	h.c.log.Info("peripheral connected",
		zap.String("peripheral", h.id),
		zap.Int("rssi", h.rssi),
		zap.Int("characteristics", len(h.services.Characteristics)),
	)
	return nil
}

// mutate applies fn under the controller lock if the handshake still owns
// the session.
func (h *handshake) mutate(fn func()) error {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if h.c.epoch != h.epoch {
		return ErrSuperseded
	}
	fn()
	return nil
}

func (h *handshake) markConnecting(context.Context) error {
	return h.mutate(func() {
		h.c.registry.Upsert(h.id, bluetooth.WithState(bluetooth.StateConnecting))
	})
}

func (h *handshake) connect(ctx context.Context) error {
	// Wait out any teardown still in flight for an older claim.
	h.c.linkMu.Lock()
	err := h.alive()
	h.c.linkMu.Unlock()
	if err != nil {
		return err
	}
	if err := h.c.driver.Connect(ctx, h.id); err != nil {
		return err
	}
	h.linked = true
	return nil
}

func (h *handshake) markConnected(context.Context) error {
	return h.mutate(func() {
		h.c.registry.Upsert(h.id, bluetooth.WithState(bluetooth.StateConnected))
		h.c.connected = true
	})
}

func (h *handshake) settle(ctx context.Context) error {
	if h.c.settleDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(h.c.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *handshake) discoverServices(ctx context.Context) error {
	if err := h.alive(); err != nil {
		return err
	}
	info, err := h.c.driver.DiscoverServices(ctx, h.id)
	if err != nil {
		return err
	}
	h.services = info
	return nil
}

func (h *handshake) readSignal(ctx context.Context) error {
	if err := h.alive(); err != nil {
		return err
	}
	rssi, err := h.c.driver.ReadSignalStrength(ctx, h.id)
	if err != nil {
		return err
	}
	h.rssi = rssi
	return nil
}

// readDescriptors reads every descriptor of every discovered
// characteristic. Individual failures are collected, never fatal.
func (h *handshake) readDescriptors(ctx context.Context) error {
	var errs []error
	for _, ch := range h.services.Characteristics {
		for _, d := range ch.Descriptors {
			value, err := h.c.driver.ReadDescriptor(ctx, h.id, ch.ServiceID, ch.ID, d.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("descriptor %s/%s/%s: %w", ch.ServiceID, ch.ID, d.ID, err))
				continue
			}
			h.c.log.Debug("descriptor read",
				zap.String("peripheral", h.id),
				zap.String("characteristic", ch.ID),
				zap.String("descriptor", d.ID),
				zap.Binary("value", value),
			)
		}
	}
	return errors.Join(errs...)
}

func (h *handshake) mergeSignal(context.Context) error {
	return h.mutate(func() {
		h.c.registry.Upsert(h.id, bluetooth.WithRSSI(h.rssi))
	})
}

func (h *handshake) alive() error {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if h.c.epoch != h.epoch {
		return ErrSuperseded
	}
	return nil
}

// rollback undoes a failed handshake. While the session still belongs to
// this handshake the record returns to Discovered and the claim is released.
// The link is dropped only if this handshake made it and no newer claim has
// taken the same peripheral since.
func (h *handshake) rollback() {
	h.c.linkMu.Lock()
	defer h.c.linkMu.Unlock()

	h.c.mu.Lock()
	owned := h.c.epoch == h.epoch
	reclaimed := !owned && h.c.activeID == h.id
	if owned {
		if _, ok := h.c.registry.Get(h.id); ok {
			h.c.registry.Upsert(h.id, bluetooth.WithState(bluetooth.StateDiscovered))
		}
		h.c.connected = false
		h.c.activeID = ""
		h.c.epoch++
	}
	h.c.mu.Unlock()

	if !h.linked || reclaimed {
		return
	}
	if err := h.c.driver.Disconnect(context.Background(), h.id); err != nil {
		h.c.log.Warn("rollback disconnect failed", zap.String("peripheral", h.id), zap.Error(err))
	}
}
