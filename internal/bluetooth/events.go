package bluetooth

import (
	"sort"
	"sync"
)

// Emitter fans driver events out to subscribers. The zero value is ready
// to use.
type Emitter struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(Event)
}

// Subscribe registers handler and returns its disposer.
func (e *Emitter) Subscribe(handler func(Event)) func() {
	e.mu.Lock()
	if e.handlers == nil {
		e.handlers = make(map[int]func(Event))
	}
	id := e.next
	e.next++
	e.handlers[id] = handler
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			e.mu.Unlock()
		})
	}
}

// Emit delivers ev to every subscriber in registration order. Handlers
// run on the caller's goroutine without the emitter lock held.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	ids := make([]int, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of registered handlers.
func (e *Emitter) Subscribers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}
