package bluetooth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInRegistrationOrder(t *testing.T) {
	var e Emitter
	var got []string
	e.Subscribe(func(ev Event) { got = append(got, "first:"+ev.Kind.String()) })
	e.Subscribe(func(ev Event) { got = append(got, "second:"+ev.Kind.String()) })

	e.Emit(Event{Kind: EventScanStopped})

	assert.Equal(t, []string{"first:scan-stopped", "second:scan-stopped"}, got)
}

func TestEmitterDisposerRemovesHandlerOnce(t *testing.T) {
	var e Emitter
	calls := 0
	dispose := e.Subscribe(func(Event) { calls++ })
	other := e.Subscribe(func(Event) {})

	e.Emit(Event{})
	dispose()
	dispose()
	e.Emit(Event{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, e.Subscribers())
	other()
	assert.Equal(t, 0, e.Subscribers())
}

func TestEmitterHandlerMaySubscribe(t *testing.T) {
	var e Emitter
	e.Subscribe(func(Event) {
		e.Subscribe(func(Event) {})
	})
	assert.NotPanics(t, func() { e.Emit(Event{}) })
	assert.Equal(t, 2, e.Subscribers())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "discovered", EventDiscovered.String())
	assert.Equal(t, "notification", EventNotification.String())
	assert.Equal(t, "disconnected", EventDisconnected.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
