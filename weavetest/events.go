package weavetest

import (
	"sync"

	"github.com/iov-one/tradefin"
)

// EventRecorder collects all observed events, in order.
type EventRecorder struct {
	mu     sync.Mutex
	events []weave.Event
}

// Observe records given events.
func (r *EventRecorder) Observe(ctx weave.Context, events []weave.Event) {
	r.mu.Lock()
	r.events = append(r.events, events...)
	r.mu.Unlock()
}

// Events returns all recorded events.
func (r *EventRecorder) Events() []weave.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]weave.Event(nil), r.events...)
}

// Names returns the names of all recorded events.
func (r *EventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.EventName()
	}
	return names
}
